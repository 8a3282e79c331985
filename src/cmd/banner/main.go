package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"logobanner/src/common"
	"logobanner/src/config"
	"logobanner/src/logging"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 4 {
		fmt.Println("Usage: banner <payload-file> [color] [out.jpeg]")
		os.Exit(1)
	}

	log := logging.GetLogger()

	payloadPath := os.Args[1]
	color := config.DefaultColor
	if len(os.Args) >= 3 {
		color = os.Args[2]
	}
	outPath := ""
	if len(os.Args) == 4 {
		outPath = os.Args[3]
	}

	data, err := os.ReadFile(payloadPath)
	if err != nil {
		log.Fatalf("Failed to read payload: %v", err)
	}

	res, err := common.NewProcessor(common.ProcessorOptions{}).
		ChangeBackground(common.EncodedPayload(strings.TrimSpace(string(data))), color)
	if err != nil {
		log.Fatalf("Failed to change background: %v", err)
	}

	if outPath == "" {
		fmt.Println(res.Data)
		return
	}

	jpeg, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		log.Fatalf("Failed to decode banner: %v", err)
	}
	if err := os.WriteFile(outPath, jpeg, 0644); err != nil {
		log.Fatalf("Failed to write banner: %v", err)
	}

	fmt.Printf("✅ Banner written to %s (%d bytes)\n", outPath, len(jpeg))
}
