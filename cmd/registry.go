package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)

	root.AddCommand(typeCmd)
	root.AddCommand(sequenceCmd)
	root.AddCommand(filesCmd)
	root.AddCommand(imageCmd)
	root.AddCommand(formatsCmd)
	root.AddCommand(richTextCmd)
	root.AddCommand(ocrCmd)
	root.AddCommand(watchCmd)
	root.AddCommand(serveCmd)
	root.AddCommand(configCmd)
}
