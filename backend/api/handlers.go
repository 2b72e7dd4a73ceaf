package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/GoPlasmatic/Reframe-IDE/backend/engine"
	"github.com/GoPlasmatic/Reframe-IDE/backend/format"
	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/GoPlasmatic/Reframe-IDE/backend/scanner"
	"github.com/gofiber/fiber/v2"
)

// ============== Package Handlers ==============

// PackageResponse is the body of GET /api/package
type PackageResponse struct {
	Package *models.PackageData         `json:"package"`
	RootDir string                      `json:"root_dir,omitempty"`
	Counts  map[models.WorkflowType]int `json:"counts"`
}

func (s *Server) packageResponse(pkg *models.PackageData) PackageResponse {
	return PackageResponse{
		Package: pkg,
		RootDir: s.session.RootDir(),
		Counts:  pkg.CategorizedWorkflows.Counts(),
	}
}

func (s *Server) getPackage(c *fiber.Ctx) error {
	pkg := s.session.Current()
	if pkg == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":      "no package loaded",
			"last_error": s.session.LastError(),
			"loading":    s.session.Loading(),
		})
	}
	return c.JSON(s.packageResponse(pkg))
}

func (s *Server) openPackage(c *fiber.Ctx) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Path) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "path is required"})
	}

	pkg, err := s.session.OpenDir(c.UserContext(), req.Path)
	if err != nil {
		return c.Status(loadStatus(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(s.packageResponse(pkg))
}

// uploadPackage loads a flat selection posted as multipart files. The multipart
// reader keeps only the base name of each file, so relative paths travel in a
// parallel "paths" field; when it is missing the filename is used as is.
func (s *Server) uploadPackage(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid multipart form"})
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "no files uploaded"})
	}
	paths := form.Value["paths"]

	selection := make([]scanner.SelectedFile, 0, len(headers))
	for i, fh := range headers {
		relativePath := fh.Filename
		if i < len(paths) && paths[i] != "" {
			relativePath = paths[i]
		}
		selection = append(selection, selectedFile(fh, relativePath))
	}

	pkg, err := s.session.OpenSelection(c.UserContext(), selection)
	if err != nil {
		return c.Status(loadStatus(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(s.packageResponse(pkg))
}

func selectedFile(fh *multipart.FileHeader, relativePath string) scanner.SelectedFile {
	relativePath = strings.ReplaceAll(relativePath, "\\", "/")
	name := relativePath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return scanner.SelectedFile{
		Name:         name,
		RelativePath: relativePath,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (s *Server) reloadPackage(c *fiber.Ctx) error {
	pkg, err := s.session.Reload(c.UserContext())
	if err != nil {
		return c.Status(loadStatus(err)).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(s.packageResponse(pkg))
}

func (s *Server) closePackage(c *fiber.Ctx) error {
	s.session.Close()
	return c.JSON(SuccessResponse{Message: "Package closed"})
}

// loadStatus maps a failed load to a status. Anything that is not a
// cancellation is a problem with the folder the user picked.
func loadStatus(err error) int {
	if status := statusFor(err); status == fiber.StatusRequestTimeout || status == fiber.StatusGatewayTimeout {
		return status
	}
	return fiber.StatusBadRequest
}

// ============== Package Model Handlers ==============

func (s *Server) listWorkflows(c *fiber.Ctx) error {
	pkg := s.session.Current()
	if pkg == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no package loaded"})
	}

	workflowType := c.Query("type")
	if workflowType == "" {
		return c.JSON(pkg.Workflows)
	}

	for _, t := range models.WorkflowTypes {
		if string(t) == workflowType {
			workflows := pkg.CategorizedWorkflows.Get(t)
			if workflows == nil {
				workflows = []*models.Workflow{}
			}
			return c.JSON(workflows)
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("unknown workflow type: %s", workflowType)})
}

func (s *Server) listScenarios(c *fiber.Ctx) error {
	pkg := s.session.Current()
	if pkg == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no package loaded"})
	}

	switch direction := models.ScenarioDirection(c.Query("direction")); direction {
	case "":
		scenarios := pkg.Scenarios
		if scenarios == nil {
			scenarios = []models.Scenario{}
		}
		return c.JSON(scenarios)
	case models.DirectionOutgoing, models.DirectionIncoming:
		return c.JSON(pkg.ScenariosByDirection(direction))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("unknown direction: %s", direction)})
	}
}

// ScenarioContentResponse is the body of GET /api/scenarios/:id/content
type ScenarioContentResponse struct {
	Scenario models.Scenario `json:"scenario"`
	Content  string          `json:"content"`
	Format   format.Format   `json:"format"`
}

func (s *Server) getScenarioContent(c *fiber.Ctx) error {
	sc, content, err := s.session.ScenarioContent(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(ScenarioContentResponse{
		Scenario: sc,
		Content:  content,
		Format:   format.Detect(content),
	})
}

// ============== Editor Handlers ==============

// FormatResponse describes a detected message format
type FormatResponse struct {
	Format      format.Format `json:"format"`
	DisplayName string        `json:"display_name"`
	Language    string        `json:"language"`
}

func (s *Server) detectFormat(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	f := format.Detect(req.Text)
	return c.JSON(FormatResponse{
		Format:      f,
		DisplayName: format.DisplayName(f),
		Language:    format.EditorLanguage(f),
	})
}

// ============== Engine Handlers ==============

// ProcessRequest is the debugger's process call. Context is accepted for
// compatibility and not forwarded to the engine.
type ProcessRequest struct {
	Payload json.RawMessage `json:"payload"`
	Context json.RawMessage `json:"context,omitempty"`
	Trace   bool            `json:"trace"`
}

func (s *Server) process(c *fiber.Ctx) error {
	var req ProcessRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	payload, err := engine.UnwrapPayload(req.Payload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	out, err := s.session.Process(c.UserContext(), payload, req.Trace)
	if err != nil {
		return sendError(c, err)
	}
	return sendOutput(c, out)
}

func (s *Server) validate(c *fiber.Ctx) error {
	var req struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	payload, err := engine.UnwrapPayload(req.Payload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	result, err := s.session.Validate(c.UserContext(), payload)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(result)
}

// GenerateResponse carries a generated sample message
type GenerateResponse struct {
	Output string        `json:"output"`
	Format format.Format `json:"format"`
}

func (s *Server) generate(c *fiber.Ctx) error {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if req.ScenarioID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "scenario_id is required"})
	}

	out, err := s.session.Generate(c.UserContext(), req.ScenarioID)
	if err != nil {
		return sendError(c, err)
	}

	output := string(out)
	return c.JSON(GenerateResponse{
		Output: output,
		Format: format.Detect(output),
	})
}

// sendOutput returns JSON engine output as is and wraps anything else
func sendOutput(c *fiber.Ctx, out []byte) error {
	if json.Valid(out) {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(out)
	}
	return c.JSON(fiber.Map{"output": string(out)})
}

// ============== History Handlers ==============

func (s *Server) listRecent(c *fiber.Ctx) error {
	if s.recent == nil {
		return c.JSON([]*models.RecentPackage{})
	}

	limit := c.QueryInt("limit", 0)
	recent, err := s.recent.List(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	if recent == nil {
		recent = []*models.RecentPackage{}
	}
	return c.JSON(recent)
}

func (s *Server) deleteRecent(c *fiber.Ctx) error {
	if s.recent == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "history is disabled"})
	}

	if err := s.recent.Delete(c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(SuccessResponse{Message: "Recent package removed"})
}
