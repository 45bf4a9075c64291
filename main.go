package main

import "yt-transcripts/cmd"

func main() {
	cmd.Execute()
}
