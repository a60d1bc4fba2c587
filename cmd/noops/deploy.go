package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noops-dev/noops/internal/api/dto"
	"github.com/noops-dev/noops/internal/client"
	"github.com/noops-dev/noops/internal/deployplan"
	"github.com/noops-dev/noops/internal/service"
)

func newDeployCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a project's handlers to the server",
		Long: `Diff the handlers declared in noops.yaml against the project's remote
handler set and apply the resulting creates, updates, and deletes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return fmt.Errorf("deploy: load config: %w", err)
			}
			jwt := config["jwt"]
			if jwt == "" {
				return fmt.Errorf(`deploy: not logged in - run "noops login"`)
			}
			baseURL := config["base-url"]
			if baseURL == "" {
				baseURL = "http://localhost:8080"
			}

			manifest, err := loadManifest(manifestPath)
			if err != nil {
				return err
			}

			httpClient := client.NewClient(jwt, client.WithBaseURL(baseURL))
			projectClient := client.NewProjectClient(httpClient)
			handlerClient := client.NewHandlerClient(httpClient)

			return deployProject(cmd, manifest, projectClient, handlerClient)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "noops.yaml", "path to the project manifest")

	return cmd
}

func deployProject(cmd *cobra.Command, manifest *Manifest, projectClient *client.ProjectClient, handlerClient *client.HandlerClient) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	fmt.Fprintln(out, "Deploying project", manifest.Project)

	remote, err := projectClient.Read(ctx, manifest.Project)
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("deploy: read remote project: %w", err)
		}
		if err := projectClient.Create(ctx, manifest.Project); err != nil {
			return fmt.Errorf("deploy: create project: %w", err)
		}
		remote = &dto.GetProject{Name: manifest.Project}
	}

	local := make([]deployplan.HandlerDescriptor, 0, len(manifest.Handlers))
	wasmByName := make(map[string]manifestEntry, len(manifest.Handlers))
	for _, h := range manifest.Handlers {
		raw, err := h.handlerWasm()
		if err != nil {
			return fmt.Errorf("deploy: %w", err)
		}
		fingerprint := service.Fingerprint(raw)
		local = append(local, deployplan.HandlerDescriptor{Name: h.Name, Language: h.Language, Fingerprint: fingerprint})
		wasmByName[h.Name] = manifestEntry{language: h.Language, wasm: raw}
	}

	remoteDescriptors := make([]deployplan.HandlerDescriptor, 0, len(remote.Handlers))
	for _, h := range remote.Handlers {
		remoteDescriptors = append(remoteDescriptors, deployplan.HandlerDescriptor{Name: h.Name, Language: h.Language, Fingerprint: h.Hash})
	}

	plan := deployplan.Compute(local, remoteDescriptors)
	return promptAndDeploy(cmd, plan, manifest.Project, wasmByName, handlerClient)
}

type manifestEntry struct {
	language string
	wasm     []byte
}

func promptAndDeploy(cmd *cobra.Command, plan deployplan.Plan, project string, wasmByName map[string]manifestEntry, handlerClient *client.HandlerClient) error {
	out := cmd.OutOrStdout()
	if !plan.HasSteps() {
		fmt.Fprintln(out, "Nothing to deploy")
		return nil
	}

	fmt.Fprintln(out, plan.String())
	if !confirm(cmd, "Deploy?") {
		fmt.Fprintln(out, "Aborting")
		return nil
	}

	ctx := cmd.Context()
	for _, h := range plan.Creates {
		entry := wasmByName[h.Name]
		fmt.Fprintln(out, "Creating handler", h.Name)
		if err := handlerClient.Create(ctx, project, dto.CreateHandler{Name: h.Name, Language: entry.language, Wasm: entry.wasm}); err != nil {
			return fmt.Errorf("deploy: create %s: %w", h.Name, err)
		}
	}
	for _, h := range plan.Updates {
		entry := wasmByName[h.Name]
		fmt.Fprintln(out, "Updating handler", h.Name)
		if err := handlerClient.Update(ctx, project, dto.CreateHandler{Name: h.Name, Language: entry.language, Wasm: entry.wasm}); err != nil {
			return fmt.Errorf("deploy: update %s: %w", h.Name, err)
		}
	}
	for _, h := range plan.Deletes {
		fmt.Fprintln(out, "Deleting handler", h.Name)
		if err := handlerClient.Delete(ctx, project, h.Name); err != nil {
			return fmt.Errorf("deploy: delete %s: %w", h.Name, err)
		}
	}

	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func isNotFound(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
