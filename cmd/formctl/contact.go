package main

import (
	"securechain-api/internal/domain"
	"securechain-api/pkg/formclient"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(contactCmd)
	contactCmd.Flags().String("name", "", "your name")
	contactCmd.Flags().String("email", "", "reply address")
	contactCmd.Flags().String("subject", "", "message subject")
	contactCmd.Flags().StringP("message", "m", "", "message body (at least 10 characters)")
}

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message through the contact form",
	Example: `  formctl contact --name Jo --email jo@x.com --subject Hi -m "Hello there!"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := fieldsFromFlags(cmd, map[string]string{
			"name":    domain.FieldName,
			"email":   domain.FieldEmail,
			"subject": domain.FieldSubject,
			"message": domain.FieldMessage,
		})
		return run(cmd, newController(cmd, formclient.FormContact), fields)
	},
}
