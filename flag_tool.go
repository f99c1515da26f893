// +build ignore

package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

const flagToolDoc = `MiniTwit Twit Flagging Tool

Usage:
  flag_tool <twit_id>...
  flag_tool -i
  flag_tool -h
Options:
  -h            Show this screen.
  -i            Dump all twits and authors to STDOUT.`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(flagToolDoc)
		return
	}

	db, err := sql.Open("sqlite3", "/tmp/minitwit.db")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't open database: %s\n", err)
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "-h":
		fmt.Println(flagToolDoc)
	case "-i":
		rows, err := db.Query("SELECT twit_id, author_id, text, pub_date, flagged FROM twit")
		if err != nil {
			fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var twitID, authorID, flagged int
			var text string
			var pubDate int64
			rows.Scan(&twitID, &authorID, &text, &pubDate, &flagged)
			fmt.Printf("%d,%d,%s,%d\n", twitID, authorID, text, flagged)
		}
	default:
		for _, arg := range os.Args[1:] {
			id, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid twit ID: %s\n", arg)
				continue
			}
			_, err = db.Exec("UPDATE twit SET flagged=1 WHERE twit_id=?", id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "SQL error: %s\n", err)
			} else {
				fmt.Printf("Flagged entry: %d\n", id)
			}
		}
	}
}
