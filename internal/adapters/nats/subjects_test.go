package natsadapter

import "testing"

func TestSubjects(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ProjectSubject("project.created"), "constructtrack.projects.created"},
		{ProjectSubject("updated"), "constructtrack.projects.updated"},
		{NotionSubject("page.content_updated"), "constructtrack.notion.page.content_updated"},
		{NotionSubject("database.schema updated"), "constructtrack.notion.database.schema_updated"},
		{NotionSubject(""), "constructtrack.notion.unknown"},
		{NotionSubject("page.>"), "constructtrack.notion.page._"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
