// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements find_contacts, create_contact and update_contact
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultLimit = 50

type ContactHandlers struct {
	contacts *services.ContactService
}

func NewContactHandlers(svc views.Services) *ContactHandlers {
	return &ContactHandlers{contacts: svc.Contacts}
}

type CreateContactInput struct {
	FirstName string   `json:"first_name" jsonschema:"First name (required)"`
	LastName  string   `json:"last_name,omitempty" jsonschema:"Last name"`
	Email     string   `json:"email,omitempty" jsonschema:"Email address"`
	Phone     string   `json:"phone,omitempty" jsonschema:"Phone number"`
	Company   string   `json:"company,omitempty" jsonschema:"Company name"`
	Title     string   `json:"title,omitempty" jsonschema:"Job title"`
	Status    string   `json:"status,omitempty" jsonschema:"Status: active, inactive, qualified (default active)"`
	Source    string   `json:"source,omitempty" jsonschema:"Where the contact came from"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Tags"`
}

type ContactOutput struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Company   string   `json:"company,omitempty"`
	Title     string   `json:"title,omitempty"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at,omitempty"`
}

func (h *ContactHandlers) CreateContact(ctx context.Context, request *mcp.CallToolRequest, input CreateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, ContactOutput{}, fmt.Errorf("first_name is required")
	}

	created, err := h.contacts.Create(ctx, models.Contact{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Company:   input.Company,
		Title:     input.Title,
		Status:    input.Status,
		Source:    input.Source,
		Tags:      input.Tags,
	})
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}

	return nil, contactToOutput(created), nil
}

type FindContactsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search text matched against name, email and company"`
	Status string `json:"status,omitempty" jsonschema:"Filter by status: active, inactive, qualified"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Total    int             `json:"total"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, request *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	contacts, err := h.contacts.Fetch(ctx)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to load contacts: %w", err)
	}

	if input.Status != "" {
		contacts = services.ContactsByStatus(contacts, input.Status)
	}
	contacts = services.SearchContacts(contacts, input.Query)

	total := len(contacts)
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(contacts) > limit {
		contacts = contacts[:limit]
	}

	out := make([]ContactOutput, len(contacts))
	for i, c := range contacts {
		out[i] = contactToOutput(c)
	}
	return nil, FindContactsOutput{Contacts: out, Total: total}, nil
}

func contactToOutput(c models.Contact) ContactOutput {
	out := ContactOutput{
		ID:        c.ID,
		Name:      c.FullName(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Title:     c.Title,
		Status:    c.Status,
		Tags:      c.Tags,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if !c.CreatedAt.IsZero() {
		out.CreatedAt = formatTime(c.CreatedAt)
	}
	return out
}

// UpdateContactInput leaves omitted fields untouched; an empty string clears one.
type UpdateContactInput struct {
	ID        int64     `json:"id" jsonschema:"Contact ID (required)"`
	FirstName *string   `json:"first_name,omitempty" jsonschema:"New first name"`
	LastName  *string   `json:"last_name,omitempty" jsonschema:"New last name"`
	Email     *string   `json:"email,omitempty" jsonschema:"New email address"`
	Phone     *string   `json:"phone,omitempty" jsonschema:"New phone number"`
	Company   *string   `json:"company,omitempty" jsonschema:"New company name"`
	Title     *string   `json:"title,omitempty" jsonschema:"New job title"`
	Status    *string   `json:"status,omitempty" jsonschema:"New status: active, inactive, qualified"`
	Source    *string   `json:"source,omitempty" jsonschema:"Where the contact came from"`
	Tags      *[]string `json:"tags,omitempty" jsonschema:"Replacement tag list"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == 0 {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	updated, err := h.contacts.Update(ctx, input.ID, models.ContactPatch{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Company:   input.Company,
		Title:     input.Title,
		Status:    input.Status,
		Source:    input.Source,
		Tags:      input.Tags,
	})
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(updated), nil
}
