// Command demo opens a window and draws the triangle until the window is
// closed.
package main

import (
	"flag"
	"fmt"
	"os"

	"tri-engine/engine"
)

func main() {
	appInfo := flag.String("app-info", "res/app_info.json", "path to the application-info document")
	maxFrames := flag.Uint64("frames", 0, "stop after this many frames (0 runs until closed)")
	flag.Parse()

	eng, err := engine.New(*appInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Destroy()

	for !eng.ShouldClose() {
		if err := eng.Update(); err != nil {
			eng.Log.Errorf("Update: %v", err)
			break
		}
		if *maxFrames > 0 && eng.Frames() >= *maxFrames {
			break
		}
	}
}
