package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mithrel/mdreader/internal/render"
)

func newRenderCmd() *cobra.Command {
	var pretty, asTerm, asHTML bool
	var style string
	var width int
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render markdown to HTML or to the terminal",
		Long:  "Render a markdown file, or stdin when no file or \"-\" is given. Output is HTML unless stdout is a terminal or --term is set.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asTerm && asHTML {
				return fmt.Errorf("choose either --term or --html")
			}
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !asTerm && !asHTML {
				asTerm = isTerminal(out)
			}
			if !asTerm {
				html := getApp(cmd).Renderer.Render(src)
				if pretty {
					html = render.Pretty(html)
				}
				_, err := io.WriteString(out, html)
				return err
			}

			cfg := getApp(cmd).Cfg
			if !cmd.Flags().Changed("style") {
				style = cfg.GetString("render.term_style")
			}
			if !cmd.Flags().Changed("width") {
				width = cfg.GetInt("render.word_wrap")
			}
			text, err := render.Terminal(src, style, width)
			if err != nil {
				return err
			}
			return withPager(cmd.Context(), out, cmd.ErrOrStderr(), func(w io.Writer) error {
				_, err := io.WriteString(w, text)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the generated HTML")
	cmd.Flags().BoolVar(&asTerm, "term", false, "render for the terminal")
	cmd.Flags().BoolVar(&asHTML, "html", false, "render HTML even when stdout is a terminal")
	cmd.Flags().StringVar(&style, "style", render.DefaultTermStyle, "glamour style for --term (dark, light, dracula, notty, ...)")
	cmd.Flags().IntVar(&width, "width", render.DefaultWordWrap, "word wrap width for --term")
	return cmd
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
