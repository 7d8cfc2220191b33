// flowpub publishes a single progress event to a flowboard server.
// It stands in for backend agents during development:
//
//	flowpub -session s1 -agent vision.analyze -status running
//	flowpub -message "Generating video with veo, please wait"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

type publishRequest struct {
	Session string `json:"session,omitempty"`
	Message string `json:"message,omitempty"`
	AgentID string `json:"agentId,omitempty"`
	Status  string `json:"status,omitempty"`
}

type ackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "flowboard server address")
	session := flag.String("session", "default", "session key")
	message := flag.String("message", "", "progress message text")
	agent := flag.String("agent", "", "explicit agent/node id")
	status := flag.String("status", "", "status tag")
	flag.Parse()

	req := publishRequest{
		Session: *session,
		Message: *message,
		AgentID: *agent,
		Status:  *status,
	}

	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowpub: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(*addr+"/api/bus/publish", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowpub: publish failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var ack ackResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		fmt.Fprintf(os.Stderr, "flowpub: bad response: %v\n", err)
		os.Exit(1)
	}

	if !ack.OK {
		fmt.Fprintf(os.Stderr, "flowpub: rejected: %s\n", ack.Error)
		os.Exit(1)
	}

	fmt.Println("ok")
}
