// Package main connects many notification stream clients to a running
// CollegeConnect server and reports what they receive.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// streamEvent mirrors the realtime frame the server pushes.
type streamEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "demo@example.edu", "Account email")
	password := flag.String("password", "password123", "Account password")
	clients := flag.Int("clients", 1, "Number of concurrent stream clients")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	verbose := flag.Bool("v", false, "Print every received event")
	flag.Parse()

	log.Printf("🚀 Starting notification stream probe")
	log.Printf("Target: %s, clients: %d, duration: %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in as %s", *email)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, i, *verbose, stopChan, &wg)
		// Tickets are single use; stagger issuance.
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("⏱️  Probe duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
	}

	close(stopChan)
	wg.Wait()
	printMetrics()
}

func postJSON(target, token string, payload any) (*envelope, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(http.MethodPost, target, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return nil, fmt.Errorf("%s returned %d: %s", target, resp.StatusCode, env.Message)
	}
	return &env, nil
}

func login(host, email, password string) (string, error) {
	env, err := postJSON(fmt.Sprintf("http://%s/api/auth/login", host), "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	env, err := postJSON(fmt.Sprintf("http://%s/api/ws/ticket", host), token, nil)
	if err != nil {
		return "", err
	}
	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

func runClient(host, token string, id int, verbose bool, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	ticket, err := getTicket(host, token)
	if err != nil {
		log.Printf("client %d: ticket: %v", id, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Printf("client %d: dial: %v", id, err)
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
			if !verbose {
				continue
			}
			var ev streamEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				log.Printf("client %d: unparseable frame: %s", id, raw)
				continue
			}
			log.Printf("client %d: [%s] %s %s", id, ev.At.Format(time.Kitchen), ev.Type, ev.Payload)
		}
	}()

	<-stopChan
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func printMetrics() {
	log.Println("\n📊 Probe Results")
	log.Println("================")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Events Received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
