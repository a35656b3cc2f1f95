package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkviewer/mkviewer/internal/catalog"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the document tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			tree, err := a.svc.Tree(cmd.Context())
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), tree, "")
			return nil
		},
	}
}

func printTree(w io.Writer, node *catalog.TreeNode, indent string) {
	for _, dir := range node.Dirs {
		fmt.Fprintf(w, "%s%s/\n", indent, dir.Name)
		printTree(w, dir, indent+"  ")
	}
	for _, file := range node.Files {
		fmt.Fprintf(w, "%s%s\n", indent, file.Title())
	}
}
