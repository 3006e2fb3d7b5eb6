package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/constructtrack/platform/internal/core/domain"
)

// Property names of the project-plan database.
const (
	PropName    = "Name"
	PropSection = "Section"
	PropStatus  = "Status"
	PropOrder   = "Order"
)

// DefaultDatabaseTitle is used when CreatePlanDatabase gets an empty title.
const DefaultDatabaseTitle = "ConstructTrack Project Plan"

// Notion rejects rich-text segments longer than this.
const maxTextLen = 2000

var statusOptions = map[domain.TaskStatus]notionapi.Option{
	domain.TaskTodo:       {Name: "To Do", Color: notionapi.ColorGray},
	domain.TaskInProgress: {Name: "In Progress", Color: notionapi.ColorBlue},
	domain.TaskDone:       {Name: "Done", Color: notionapi.ColorGreen},
}

// Client publishes plan tasks to a Notion database.
type Client struct {
	api *notionapi.Client
}

// New creates a client authenticated with an internal integration token.
func New(token string, opts ...notionapi.ClientOption) *Client {
	return &Client{api: notionapi.NewClient(notionapi.Token(token), opts...)}
}

// VerifyAccess checks that the integration can read the given page.
func (c *Client) VerifyAccess(ctx context.Context, pageID string) error {
	if _, err := c.api.Page.Get(ctx, notionapi.PageID(pageID)); err != nil {
		return fmt.Errorf("get page %s: %w", pageID, err)
	}
	return nil
}

// CreatePlanDatabase creates the project-plan database under parentPageID
// and returns its ID.
func (c *Client) CreatePlanDatabase(ctx context.Context, parentPageID, title string) (string, error) {
	if title == "" {
		title = DefaultDatabaseTitle
	}
	options := []notionapi.Option{
		statusOptions[domain.TaskTodo],
		statusOptions[domain.TaskInProgress],
		statusOptions[domain.TaskDone],
	}
	db, err := c.api.Database.Create(ctx, &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(parentPageID),
		},
		Title: richText(title),
		Properties: notionapi.PropertyConfigs{
			PropName: notionapi.TitlePropertyConfig{Type: notionapi.PropertyConfigTypeTitle},
			PropSection: notionapi.RichTextPropertyConfig{
				Type: notionapi.PropertyConfigTypeRichText,
			},
			PropStatus: notionapi.SelectPropertyConfig{
				Type:   notionapi.PropertyConfigTypeSelect,
				Select: notionapi.Select{Options: options},
			},
			PropOrder: notionapi.NumberPropertyConfig{
				Type:   notionapi.PropertyConfigTypeNumber,
				Number: notionapi.NumberFormat{Format: notionapi.FormatNumber},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create database: %w", err)
	}
	return db.ID.String(), nil
}

// CreateTaskPage adds one task row to the database and returns the page ID.
func (c *Client) CreateTaskPage(ctx context.Context, databaseID string, task domain.PlanTask) (string, error) {
	if strings.TrimSpace(task.Title) == "" {
		return "", fmt.Errorf("task %d has no title", task.Order)
	}
	status, ok := statusOptions[task.Status]
	if !ok {
		status = statusOptions[domain.TaskTodo]
	}

	props := notionapi.Properties{
		PropName:   notionapi.TitleProperty{Title: richText(task.Title)},
		PropStatus: notionapi.SelectProperty{Select: notionapi.Option{Name: status.Name}},
		PropOrder:  notionapi.NumberProperty{Number: float64(task.Order)},
	}
	if task.Section != "" {
		props[PropSection] = notionapi.RichTextProperty{RichText: richText(task.Section)}
	}

	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("create page for task %q: %w", task.Title, err)
	}
	return page.ID.String(), nil
}

// ArchivePage moves a page to the trash.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived:   true,
		Properties: notionapi.Properties{},
	})
	if err != nil {
		return fmt.Errorf("archive page %s: %w", pageID, err)
	}
	return nil
}

func richText(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > maxTextLen {
		s = string(r[:maxTextLen])
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
