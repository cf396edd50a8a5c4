package cmd

import (
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/models"
	"ghostline/pkg/retention"
)

func init() {
	messageCmd.AddCommand(messageGetCmd)
	messageCmd.AddCommand(messageSweepCmd)
	rootCmd.AddCommand(messageCmd)
}

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Inspect or settle a single message",
}

var messageGetCmd = &cobra.Command{
	Use:   "get [message-id]",
	Short: "Print the stored record of a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}
		var msg models.Message
		if err := c.Do(fasthttp.MethodGet, "/admin/messages/"+escape(args[0]), &msg); err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), msg)
	},
}

var messageSweepCmd = &cobra.Command{
	Use:   "sweep [message-id]",
	Short: "Apply due retention transitions to one message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}
		var item retention.Item
		if err := c.Do(fasthttp.MethodPost, "/admin/messages/"+escape(args[0])+"/sweep", &item); err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), item)
	},
}
