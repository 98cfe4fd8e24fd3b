package main

import (
	"github.com/jishanahmed-shaikh/yt-downloader-jars/cmd/ytdl/cmd"
)

func main() {
	cmd.Execute()
}
