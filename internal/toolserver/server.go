// Package toolserver exposes the reminder repository as MCP tools so agents
// can list, inspect and create location reminders and simulate geofence
// entries over stdio.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/njoerd114/locationreminders/internal/geofence"
	"github.com/njoerd114/locationreminders/internal/model"
	"github.com/njoerd114/locationreminders/internal/viewmodel"
)

const serverName = "locationreminders"

// EventHandler consumes geofence events. Implemented by [geofence.Receiver].
type EventHandler interface {
	Handle(ctx context.Context, ev geofence.Event) error
}

// Server is the MCP tool surface over one repository.
type Server struct {
	mcpServer *server.MCPServer
	repo      viewmodel.Repository
	events    EventHandler
	log       *slog.Logger

	// saveMu serialises save_reminder so each call reads only its own effects.
	saveMu sync.Mutex
	save   *viewmodel.SaveReminder
}

// NewServer creates a Server. save runs the same validation and persistence
// path as the interactive form; events receives enter_geofence calls.
func NewServer(version string, repo viewmodel.Repository, save *viewmodel.SaveReminder, events EventHandler, logger *slog.Logger) *Server {
	s := &Server{
		repo:   repo,
		save:   save,
		events: events,
		log:    logger,
	}
	s.mcpServer = server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serving MCP over stdio: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List every saved location reminder in creation order"),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_reminder",
			mcp.WithDescription("Get one reminder by its ID"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleGetReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("save_reminder",
			mcp.WithDescription("Create a reminder tied to a location. Title and location are required; a geofence is registered when coordinates are given"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("location", mcp.Required(), mcp.Description("Human readable place name")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithNumber("latitude", mcp.Description("Latitude in degrees")),
			mcp.WithNumber("longitude", mcp.Description("Longitude in degrees")),
		),
		s.handleSaveReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_all_reminders",
			mcp.WithDescription("Delete every reminder permanently"),
		),
		s.handleDeleteAll,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("enter_geofence",
			mcp.WithDescription("Simulate entering the geofences of one or more reminders"),
			mcp.WithString("ids", mcp.Required(), mcp.Description("Comma separated reminder IDs")),
		),
		s.handleEnterGeofence,
	)
}

func jsonResult(v any) *mcp.CallToolResult {
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

func (s *Server) handleListReminders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.repo.GetReminders(ctx)
	list, ok := res.Get()
	if !ok {
		msg, _ := res.Message()
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %s", msg)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	return jsonResult(list), nil
}

func (s *Server) handleGetReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	res := s.repo.GetReminder(ctx, id)
	if r, ok := res.Get(); ok {
		return jsonResult(r), nil
	}
	msg, _ := res.Message()
	return mcp.NewToolResultError(msg), nil
}

func (s *Server) handleSaveReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lat, err := optionalFloat(req, "latitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lng, err := optionalFloat(req, "longitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item := model.NewReminderItem(
		optionalString(req, "title"),
		optionalString(req, "description"),
		optionalString(req, "location"),
		lat,
		lng,
	)

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.save.ValidateAndSave(item)
	s.save.Wait()

	for _, ev := range s.save.Effects.Drain() {
		switch e := ev.(type) {
		case viewmodel.SnackBarCode:
			return mcp.NewToolResultError(e.Code.String()), nil
		case viewmodel.SnackBar:
			return mcp.NewToolResultError(fmt.Sprintf("failed to save reminder: %s", e.Text)), nil
		}
	}

	s.log.Info("reminder saved via MCP", "id", item.ID)
	return jsonResult(item.ToReminder()), nil
}

func (s *Server) handleDeleteAll(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.repo.DeleteAllReminders(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminders: %v", err)), nil
	}
	return mcp.NewToolResultText("All reminders deleted."), nil
}

func (s *Server) handleEnterGeofence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ids []string
	for _, id := range strings.Split(req.GetString("ids", ""), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return mcp.NewToolResultError("ids is required"), nil
	}

	ev := geofence.Event{Transition: geofence.TransitionEnter, RequestIDs: ids}
	if err := s.events.Handle(ctx, ev); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to deliver geofence event: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Geofence entered for %d reminder(s).", len(ids))), nil
}

// optionalString returns nil when the argument is absent so blank and missing
// fields stay distinguishable.
func optionalString(req mcp.CallToolRequest, name string) *string {
	v, ok := req.GetArguments()[name].(string)
	if !ok {
		return nil
	}
	return &v
}

// optionalFloat returns nil when the argument is absent and an error when it
// is present but not a number.
func optionalFloat(req mcp.CallToolRequest, name string) (*float64, error) {
	if _, ok := req.GetArguments()[name]; !ok {
		return nil, nil
	}
	v, err := req.RequireFloat(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
