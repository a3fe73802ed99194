// quickorder-client is a CLI tool for testing quick-order sync flows.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	quickorder-client open -server URL [-customer ID] [-variants v1,v2]
//	quickorder-client view -server URL -session <session-id>
//	quickorder-client set -server URL -session <session-id> -variant ID -qty RAW
//	quickorder-client remove -server URL -session <session-id> -variant ID
//	quickorder-client close -server URL -session <session-id>
//	quickorder-client watch -server URL -session <session-id>
//
// Examples:
//
//	SID=$(quickorder-client open -server http://localhost:8080 -customer 82461 -q)
//	quickorder-client set -server http://localhost:8080 -session $SID -variant 1111 -qty 4
//	quickorder-client view -server http://localhost:8080 -session $SID
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
)

const clientVersion = "1.4.2"

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL  string
	customerID string
	fresh      bool
	quiet      bool
	noColor    bool
	verbose    bool
)

// ANSI color codes
var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorCyan, colorGray = "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "open":
		runOpen(args)
	case "view":
		runView(args)
	case "set":
		runSet(args)
	case "remove":
		runRemove(args)
	case "close":
		runClose(args)
	case "watch":
		runWatch(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `quickorder-client - quick-order sync test tool

Usage:
  quickorder-client <command> [options]

Commands:
  open      Open a session (reconciles cart against saved snapshot)
  view      Print the current derived view
  set       Set a variant quantity (raw input, server clamps)
  remove    Remove a variant from the cart
  close     Close a session
  watch     Stream live view events over websocket

Examples:
  # Open a session and capture its ID
  SID=$(quickorder-client open -server http://localhost:8080 -customer 82461 -q)

  # Edit a quantity
  quickorder-client set -server http://localhost:8080 -session "$SID" -variant 1111 -qty 4

  # Watch the view update live
  quickorder-client watch -server http://localhost:8080 -session "$SID"

Run 'quickorder-client <command> -h' for command-specific options.
`)
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "sync server base URL")
	fs.StringVar(&customerID, "customer", "", "Shopify customer ID (empty = anonymous)")
	fs.BoolVar(&fresh, "fresh", true, "mark the session as a fresh page load")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

// =============================================================================
// COMMANDS
// =============================================================================

func runOpen(args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	addCommonFlags(fs)
	var variants string
	fs.StringVar(&variants, "variants", "", "Comma-separated variant IDs on the page")
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	reqBody := map[string]interface{}{}
	if variants != "" {
		reqBody["variants"] = strings.Split(variants, ",")
	}

	resp, err := doRequest("POST", "/sessions", reqBody)
	if err != nil {
		fatal("Failed to open session: %v", err)
	}

	sessionID, _ := resp["session_id"].(string)
	if quiet {
		fmt.Println(sessionID)
		return
	}

	outcome, _ := resp["outcome"].(string)
	printSuccess("Session opened (%s)", outcome)
	fmt.Printf("  ID: %s%s%s\n", colorCyan, sessionID, colorReset)
	if view, ok := resp["view"].(map[string]interface{}); ok {
		printView(view)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	addCommonFlags(fs)
	sessionID := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	requireSession(fs, *sessionID)

	resp, err := doRequest("GET", "/sessions/"+*sessionID+"/view", nil)
	if err != nil {
		fatal("Failed to fetch view: %v", err)
	}
	printView(resp)
}

func runSet(args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	addCommonFlags(fs)
	sessionID := fs.String("session", "", "Session ID (required)")
	variantID := fs.String("variant", "", "Variant ID (required)")
	qty := fs.String("qty", "", "Raw quantity input (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	requireSession(fs, *sessionID)
	if *variantID == "" || *qty == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/sessions/"+*sessionID+"/quantity", map[string]interface{}{
		"variant_id": *variantID,
		"quantity":   *qty,
	})
	if err != nil {
		fatal("Failed to set quantity: %v", err)
	}

	printSuccess("Quantity accepted")
	printView(resp)
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	addCommonFlags(fs)
	sessionID := fs.String("session", "", "Session ID (required)")
	variantID := fs.String("variant", "", "Variant ID (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	requireSession(fs, *sessionID)
	if *variantID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/sessions/"+*sessionID+"/remove", map[string]interface{}{
		"variant_id": *variantID,
	})
	if err != nil {
		fatal("Failed to remove variant: %v", err)
	}

	printSuccess("Variant removed")
	printView(resp)
}

func runClose(args []string) {
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	addCommonFlags(fs)
	sessionID := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	requireSession(fs, *sessionID)

	if _, err := doRequest("DELETE", "/sessions/"+*sessionID, nil); err != nil {
		fatal("Failed to close session: %v", err)
	}
	printSuccess("Session closed")
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addCommonFlags(fs)
	sessionID := fs.String("session", "", "Session ID (required)")
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	requireSession(fs, *sessionID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/sessions/" + *sessionID + "/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Quick-Order-Client": []string{clientHeader()}},
	})
	if err != nil {
		fatal("Failed to connect: %v", err)
	}
	defer conn.CloseNow()

	printInfo("Watching %s (ctrl-c to stop)", *sessionID)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			fatal("Stream ended: %v", err)
		}
		printJSON(data, "  ")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func requireSession(fs *flag.FlagSet, sessionID string) {
	if sessionID == "" {
		fs.Usage()
		os.Exit(1)
	}
}

// clientHeader builds the Quick-Order-Client structured-field dictionary.
func clientHeader() string {
	parts := []string{fmt.Sprintf("v=%q", clientVersion)}
	if customerID != "" {
		parts = append(parts, fmt.Sprintf("customer=%q", customerID))
	}
	if fresh {
		parts = append(parts, "fresh")
	}
	return strings.Join(parts, ", ")
}

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, serverURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Quick-Order-Client", clientHeader())

	if verbose && reqJSON != nil {
		printInfo("%s %s", method, path)
		printJSON(reqJSON, "  ")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Code != "" {
			return nil, fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if len(respBody) == 0 {
		return nil, nil
	}

	var out map[string]interface{}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return out, nil
}

func printView(view map[string]interface{}) {
	if quiet {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	printJSON(data, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
