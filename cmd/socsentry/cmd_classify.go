package main

// ---------------------------------------------------------------------------
// cmd_classify.go — classify a URL or email snippet as a phishing indicator
// ---------------------------------------------------------------------------

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/socsentry-project/socsentry/internal/core"
	"github.com/socsentry-project/socsentry/internal/modules/phishing"
)

func cmdClassify(args []string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	format := fs.String("format", "table", "Output format: table, json")
	jsonOut := fs.Bool("json", false, "Output raw JSON")
	fs.Parse(args)

	if *jsonOut {
		*format = "json"
	}
	outFmt := parseFormat(*format)

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	scorer := phishing.NewScorer(cfg.Phishing)

	// Positional input wins; otherwise read stdin (piped lines or an
	// interactive prompt loop).
	if fs.NArg() > 0 {
		classifyOne(scorer, strings.Join(fs.Args(), " "), outFmt)
		return
	}

	if isTTY(os.Stdin) {
		interactiveClassify(scorer, outFmt)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		classifyOne(scorer, line, outFmt)
	}
	if err := scanner.Err(); err != nil {
		errorf("reading stdin: %v", err)
	}
}

func classifyOne(scorer *phishing.Scorer, text string, outFmt OutputFormat) {
	result := scorer.ClassifyText(text)

	if outFmt == FormatJSON {
		out := struct {
			Input string `json:"input"`
			core.DetectionResult
		}{Input: text, DetectionResult: result}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			errorf("encoding result: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	printResult(os.Stdout, result)
}

func interactiveClassify(scorer *phishing.Scorer, outFmt OutputFormat) {
	fmt.Println(cyan("=== SOC Phishing Detection ==="))
	fmt.Println(dim("Type 'exit' or 'quit' to stop."))

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(bold("Enter URL or Email text: "))
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "exit", "quit":
			return
		case "":
			warnf("input cannot be empty")
			continue
		}

		classifyOne(scorer, line, outFmt)
	}
}
