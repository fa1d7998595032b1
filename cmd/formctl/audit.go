package main

import (
	"fmt"
	"os"
	"path/filepath"

	"securechain-api/internal/domain"
	"securechain-api/pkg/formclient"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().String("project", "", "project name")
	auditCmd.Flags().String("email", "", "contact email")
	auditCmd.Flags().String("chain", "", "target blockchain or stack")
	auditCmd.Flags().String("description", "", "what should be audited")
	auditCmd.Flags().String("telegram", "", "telegram handle")
	auditCmd.Flags().String("github", "", "repository URL")
	auditCmd.Flags().String("timeline", "", "desired timeline")
	auditCmd.Flags().String("budget", "", "budget range")
	auditCmd.Flags().StringP("file", "f", "", "documentation to attach (PDF or ZIP, under 10MB)")
}

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "Request a smart contract audit",
	Example: `  formctl audit --project Vault --email team@vault.xyz --chain Ethereum --description "Lending protocol" -f whitepaper.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newController(cmd, formclient.FormAuditRequest)

		if path, _ := cmd.Flags().GetString("file"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open attachment: %w", err)
			}
			defer f.Close()

			file, err := attachment(f)
			if err != nil {
				return err
			}
			if err := c.AttachFile(file); err != nil {
				printErrors(cmd.OutOrStdout(), "errors", c.Errors())
				return errSubmissionFailed
			}
		}

		fields := fieldsFromFlags(cmd, map[string]string{
			"project":     domain.FieldProjectName,
			"email":       domain.FieldEmail,
			"chain":       domain.FieldChain,
			"description": domain.FieldDescription,
			"telegram":    domain.FieldTelegram,
			"github":      domain.FieldGitHub,
			"timeline":    domain.FieldTimeline,
			"budget":      domain.FieldBudget,
		})
		return run(cmd, c, fields)
	},
}

// attachment describes f the way a browser would declare it
func attachment(f *os.File) (*domain.UploadedFile, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect attachment type: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("rewind attachment: %w", err)
	}

	return &domain.UploadedFile{
		Name:        filepath.Base(f.Name()),
		Size:        info.Size(),
		ContentType: mtype.String(),
		Content:     f,
	}, nil
}
