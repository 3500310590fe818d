// reqdump is a debugging tool: it accepts TCP connections, parses each
// incoming HTTP request with the same parser the server uses, and prints
// what it saw.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"os"
	"sort"
	"time"

	"staticserver/internal/request"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	flag.Parse()

	tcp, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: failed to listen:", err)
		os.Exit(1)
	}
	defer tcp.Close()

	fmt.Println("dumping requests arriving on", *addr)
	for {
		conn, err := tcp.Accept()
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: failed to accept:", err)
			continue
		}
		go handleConn(conn)
	}
}

func handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	req, err := request.FromReader(conn)
	if err != nil {
		fmt.Println("ERROR: failed to parse request:", err)
		return
	}

	fmt.Printf("Request line:\n- Method: %s\n- Target: %s\n- Version: %s\n",
		req.Line.Method, req.Line.Target, req.Line.Version)

	fmt.Println("Headers:")
	if len(req.Headers) == 0 {
		fmt.Println("- (none)")
	} else {
		keys := make([]string, 0, len(req.Headers))
		for k := range req.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("- %s: %s\n", textproto.CanonicalMIMEHeaderKey(k), req.Headers.Get(k))
		}
	}

	resp := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 2\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"OK"
	_, _ = io.WriteString(conn, resp)
}
