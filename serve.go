package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/df07/go-recursive-raytracer/web/server"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve renders over HTTP",
		Long: `Start the web API. Endpoints:
  /api/health          liveness check
  /api/scenes          built-in scenes and scene files
  /api/scene-config    defaults and limits of one scene
  /api/render          render a scene to PNG
  /api/render/stream   render with server-sent progress events
  /api/inspect         describe the object under a pixel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port < 0 || port > 65535 {
				return fmt.Errorf("invalid --port %d", port)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Visit http://localhost:%d/api/health to check the server\n", port)
			return server.NewServer(port, dir).Start(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to serve on")
	cmd.Flags().StringVar(&dir, "dir", "scenes", "Directory searched for scene files")
	return cmd
}
