package main

import (
	"clipkind/cmd"
	"clipkind/pkg/ocr"
	"clipkind/pkg/ocr/tesseract"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

func main() {
	cmd.Version = Version
	cmd.BuildTime = BuildTime
	cmd.GitCommit = GitCommit
	cmd.NewEngine = func(tessdataPrefix string) ocr.Engine {
		return tesseract.New(tessdataPrefix)
	}

	cmd.Execute()
}
