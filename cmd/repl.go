package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/luma/beacon/client"
	"github.com/luma/beacon/internal/env"
	"github.com/luma/beacon/protocol"
)

const historyFile = ".beacon_history"

var ReplCmd = &cobra.Command{
	Use:   "repl",
	Short: "Open an interactive prompt against a server",
	Long: `Open an interactive prompt against a server

Usage
	beacon repl -a 127.0.0.1 -p 6379

Type commands as you would in redis-cli; 'quit' leaves the prompt.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := env.MakeLogger(debug)
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		conn, err := client.Connect(ctx, client.Options{
			Host: host,
			Port: port,
			Log:  log.Named("client"),
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		line := liner.NewLiner()
		defer line.Close()

		line.SetCtrlCAborts(true)
		loadHistory(line)
		defer saveHistory(line)

		prompt := fmt.Sprintf("%s:%d> ", host, port)
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			// Piped input gets no prompt so the output stays clean.
			prompt = ""
		}

		for {
			input, err := line.Prompt(prompt)
			if err != nil {
				if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
					return nil
				}

				return err
			}

			fields := strings.Fields(input)
			if len(fields) == 0 {
				continue
			}

			line.AppendHistory(input)

			if strings.EqualFold(fields[0], "quit") {
				req := protocol.NewRequest()
				req.Quit()

				sink := &protocol.SimpleStringSink{}
				if err := conn.Do(ctx, req, sink); err == nil {
					fmt.Println(sink.Result)
				}

				return nil
			}

			req := protocol.NewRequest()
			req.Command(fields[0], fields[1:]...)

			sink := &protocol.ArraySink{}
			if err := conn.Do(ctx, req, sink); err != nil {
				return fmt.Errorf("Connection lost: %w", err)
			}

			printReply(sink)
		}
	},
}

func printReply(sink *protocol.ArraySink) {
	status := sink.Status()

	if serverErr := status.ErrorOrNil(); serverErr != nil {
		fmt.Printf("(error) %s\n", status.Message)
		return
	}

	if status.Null {
		fmt.Println("(nil)")
		return
	}

	switch len(sink.Result) {
	case 0:
		fmt.Println("(empty)")
	case 1:
		fmt.Println(sink.Result[0])
	default:
		for i, el := range sink.Result {
			fmt.Printf("%d) %s\n", i+1, el)
		}
	}
}

func loadHistory(line *liner.State) {
	path, err := historyPath()
	if err != nil {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = line.ReadHistory(f)
}

func saveHistory(line *liner.State) {
	path, err := historyPath()
	if err != nil {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = line.WriteHistory(f)
}

func historyPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, historyFile), nil
}
