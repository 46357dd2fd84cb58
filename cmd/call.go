package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/luma/beacon/client"
	"github.com/luma/beacon/internal/env"
	"github.com/luma/beacon/protocol"
)

var (
	// filter is a gjson path applied to the JSON rendering of the reply
	filter string
)

func init() {
	CallCmd.Flags().StringVar(&filter, "filter", "", "A gjson path to extract from the reply document")
}

var CallCmd = &cobra.Command{
	Use:   "call COMMAND [ARG...]",
	Short: "Send a single command and print the reply as JSON",
	Long: `Send a single command and print the reply as JSON

Usage
	beacon call GET greeting
	beacon call HELLO 3 --filter result.2
`,
	Args: cobra.MinimumNArgs(1),
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

		req := protocol.NewRequest()
		req.Command(args[0], args[1:]...)

		sink := &protocol.ArraySink{}
		if err := conn.Do(ctx, req, sink); err != nil {
			return err
		}

		doc, err := renderReply(args[0], sink)
		if err != nil {
			return err
		}

		if filter != "" {
			fmt.Println(gjson.GetBytes(doc, filter).String())
			return nil
		}

		fmt.Println(string(doc))
		return nil
	},
}

// renderReply builds the reply document: the command, its flattened
// elements, and the status the sink recorded.
func renderReply(command string, sink *protocol.ArraySink) ([]byte, error) {
	doc := []byte("{}")

	doc, err := sjson.SetBytes(doc, "command", command)
	if err != nil {
		return nil, err
	}

	for i, el := range sink.Result {
		doc, err = sjson.SetBytes(doc, "result."+strconv.Itoa(i), el)
		if err != nil {
			return nil, err
		}
	}

	status := sink.Status()

	if status.Null {
		doc, err = sjson.SetBytes(doc, "null", true)
		if err != nil {
			return nil, err
		}
	}

	if serverErr := status.ErrorOrNil(); serverErr != nil {
		doc, err = sjson.SetBytes(doc, "error", status.Message)
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}
