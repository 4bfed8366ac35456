package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/internal/presentation/graph"
	"github.com/aretw0/circuitry/internal/presentation/tui"
	"github.com/aretw0/circuitry/internal/validator"
	httpAdapter "github.com/aretw0/circuitry/pkg/adapters/http"
	loamAdapter "github.com/aretw0/circuitry/pkg/adapters/loam"
	"github.com/aretw0/circuitry/pkg/adapters/mcp"
	"github.com/aretw0/circuitry/pkg/codec"
	"github.com/aretw0/circuitry/pkg/domain"
)

// Eval processes one stimulus and prints the output bits.
func Eval(app *App, doc *domain.Document, bits string, out io.Writer) error {
	stimulus, err := circuitry.ParseBits(bits)
	if err != nil {
		return err
	}
	got, err := app.Engine.Evaluate(doc, stimulus...)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.Bits(out, circuitry.FormatBits(got)))
	return nil
}

// Table prints the truth table of doc as Markdown, rendered on a terminal.
func Table(app *App, doc *domain.Document, out io.Writer) error {
	c, err := app.Engine.Build(doc)
	if err != nil {
		return err
	}
	rows, err := c.TruthTable()
	if err != nil {
		return err
	}
	rendered, err := tui.Renderer(out)(circuitry.TruthTableMarkdown(rows))
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}

// Graph prints doc as a Mermaid flowchart. When bits is set the circuit is
// evaluated with it first and live signals are highlighted.
func Graph(app *App, doc *domain.Document, bits string, out io.Writer) error {
	var overlay *graph.Overlay
	if bits != "" {
		stimulus, err := circuitry.ParseBits(bits)
		if err != nil {
			return err
		}
		c, err := app.Engine.Build(doc)
		if err != nil {
			return err
		}
		if _, err := c.Process(stimulus...); err != nil {
			return err
		}
		overlay = graph.OverlayFrom(c)
	}
	fmt.Fprint(out, graph.GenerateMermaid(doc, overlay))
	return nil
}

// Validate checks each path, a document file or a library directory, and
// prints the findings. It fails when any document has errors.
func Validate(ctx context.Context, app *App, paths []string, out io.Writer) error {
	reports := make(map[string]*validator.Report)
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			doc, err := codec.ReadFile(path)
			if err != nil {
				reports[path] = &validator.Report{Issues: []validator.Issue{{
					Severity: validator.SeverityError, Component: -1, Connection: -1, Message: err.Error(),
				}}}
				continue
			}
			reports[path] = validator.Check(doc, app.Engine.Registry())
			continue
		}

		src, err := loamAdapter.Open(path)
		if err != nil {
			return err
		}
		dirReports, err := validator.CheckSource(ctx, src, app.Engine.Registry())
		if err != nil {
			return err
		}
		for name, r := range dirReports {
			reports[path+":"+name] = r
		}
	}

	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		r := reports[name]
		if len(r.Issues) == 0 {
			fmt.Fprintf(out, "%s: ok\n", name)
			continue
		}
		if r.Err() != nil {
			failed++
		}
		for _, issue := range r.Issues {
			fmt.Fprintf(out, "%s: %s\n", name, issue)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents have errors", failed, len(reports))
	}
	return nil
}

// Shell runs the line editor on the named workspace.
func Shell(ctx context.Context, app *App, name string, in io.Reader, out io.Writer, headless bool) error {
	ws, err := app.Engine.Open(ctx, name)
	if err != nil {
		return err
	}
	defer app.Engine.Close(name)

	interactive := !headless && tui.IsTerminal(out)
	if interactive {
		tui.PrintBanner(out)
		printSystemMessage(out, "Workspace '%s' open. Type 'help' for commands.", name)
	}

	r := circuitry.NewRunner()
	r.Input = in
	r.Output = out
	r.Headless = headless
	r.Renderer = tui.Renderer(out)
	return r.Run(ctx, ws)
}

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, app *App, addr string, out io.Writer) error {
	var opts []httpAdapter.Option
	opts = append(opts, httpAdapter.WithLogger(app.Logger))
	if app.Config.Server.Metrics {
		opts = append(opts, httpAdapter.WithMetrics(app.MetricsHandler()))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpAdapter.NewHandler(app.Engine, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printSystemMessage(out, "Starting circuitry server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		printSystemMessage(out, "circuitry server stopped gracefully")
		return nil
	})
	return g.Wait()
}

// MCP runs the MCP server over stdio or SSE.
func MCP(ctx context.Context, app *App, transport, addr string) error {
	srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger))
	switch transport {
	case "stdio":
		app.Logger.Info("Starting circuitry MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
	}
}

// LibraryList prints the registered custom components with their port counts.
func LibraryList(app *App, out io.Writer) error {
	for _, name := range app.Engine.Library().Names() {
		proto, ok := app.Engine.Registry().Prototype(name)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%s\t%d in\t%d out\n", name, proto.NumInputs(), proto.NumOutputs())
	}
	return nil
}

// LibraryShow prints a custom component's document in format.
func LibraryShow(ctx context.Context, app *App, name string, format codec.Format, out io.Writer) error {
	doc, err := app.Engine.Library().Get(ctx, name)
	if err != nil {
		return err
	}
	data, err := codec.Encode(doc, format)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// LibraryAdd stores doc as the custom component name.
func LibraryAdd(ctx context.Context, app *App, name string, doc *domain.Document, out io.Writer) error {
	c, err := app.Engine.Build(doc)
	if err != nil {
		return err
	}
	comp, err := app.Engine.Library().Save(ctx, name, c)
	if err != nil {
		return err
	}
	printSystemMessage(out, "Saved custom component '%s' (%d in, %d out).", name, comp.NumInputs(), comp.NumOutputs())
	return nil
}

// LibraryRemove deletes a custom component.
func LibraryRemove(ctx context.Context, app *App, name string, out io.Writer) error {
	if err := app.Engine.Library().Delete(ctx, name); err != nil {
		return err
	}
	printSystemMessage(out, "Removed custom component '%s'.", name)
	return nil
}

// Workspaces prints the persisted workspace names.
func Workspaces(ctx context.Context, app *App, out io.Writer) error {
	names, err := app.Engine.Workspaces(ctx)
	if err != nil {
		return err
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintln(out, strings.Join(names, "\n"))
	}
	return nil
}

// Export writes a workspace's document in format.
func Export(ctx context.Context, app *App, name string, format codec.Format, out io.Writer) error {
	doc, err := app.Engine.Sessions().Load(ctx, name)
	if err != nil {
		return fmt.Errorf("workspace %q: %w", name, err)
	}
	data, err := codec.Encode(doc, format)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// Import replaces a workspace's content with doc, creating it if needed.
func Import(ctx context.Context, app *App, name string, doc *domain.Document, out io.Writer) error {
	ws, err := app.Engine.Open(ctx, name)
	if err != nil {
		return err
	}
	defer app.Engine.Close(name)
	if err := ws.Import(doc); err != nil {
		return err
	}
	if err := ws.Save(ctx); err != nil {
		return err
	}
	printSystemMessage(out, "Imported %d components into '%s'.", len(doc.Components), name)
	return nil
}
