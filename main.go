package main

import (
	"log"

	"github.com/boypt/tracker-dash/server"
	"github.com/jpillora/opts"
)

var VERSION = "0.0.0-src" //set with ldflags

func main() {
	s := server.Server{
		Title: "Tracker Dashboard",
		Port:  3000,
	}

	opts.New(&s).
		Version(VERSION).
		PkgRepo().
		SetLineWidth(96).
		Parse()

	if err := s.Run(VERSION); err != nil {
		log.Fatal(err)
	}
}
