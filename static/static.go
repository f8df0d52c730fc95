package ctstatic

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"os"
)

//go:embed files
var embedded embed.FS

const localDir = "static/files/"

func files() fs.FS {
	// a checked out static/files/ wins, handy while editing the page
	if info, err := os.Stat(localDir); err == nil && info.IsDir() {
		return os.DirFS(localDir)
	}
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// FileSystemHandler serves all static/ files.
func FileSystemHandler() http.Handler {
	return http.FileServer(http.FS(files()))
}

// ReadAll returns the content of a single static file.
func ReadAll(name string) ([]byte, error) {
	f, err := files().Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
