package main

import (
	"fmt"

	"github.com/talkio/realtime-client/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
