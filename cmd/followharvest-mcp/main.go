package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// harvestRequest mirrors the followharvest API request model.
type harvestRequest struct {
	Handle       string `json:"handle"`
	MaxFollowers int    `json:"maxFollowers,omitempty"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// harvestResponse mirrors the followharvest API response model.
type harvestResponse struct {
	Success       bool   `json:"success"`
	Handle        string `json:"handle"`
	FollowerCount int    `json:"followerCount"`
	Followers     []struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Bio         string `json:"bio"`
		AvatarURL   string `json:"avatarUrl"`
		JoinDate    string `json:"joinDate"`
	} `json:"followers"`
	TotalFetched int    `json:"totalFetched"`
	Error        string `json:"error"`
	Code         string `json:"code"`
}

func main() {
	apiURL := os.Getenv("FH_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FH_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "FH_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"followharvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	harvestTool := mcp.NewTool("harvest_followers",
		mcp.WithDescription("Log in to X/Twitter with the given account and list followers of a target handle, with display name, bio, avatar and join date."),
		mcp.WithString("handle",
			mcp.Required(),
			mcp.Description("Target account handle, with or without the leading @"),
		),
		mcp.WithNumber("max_followers",
			mcp.Description("Maximum number of followers to return (default 100)"),
		),
		mcp.WithString("username",
			mcp.Required(),
			mcp.Description("Login username, email or phone of the browsing account"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Password of the browsing account"),
		),
	)

	s.AddTool(harvestTool, handleHarvest(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the followharvest API and returns the
// response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleHarvest(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 15 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		handle, err := request.RequireString("handle")
		if err != nil {
			return mcp.NewToolResultError("handle is required"), nil
		}
		username, err := request.RequireString("username")
		if err != nil {
			return mcp.NewToolResultError("username is required"), nil
		}
		password, err := request.RequireString("password")
		if err != nil {
			return mcp.NewToolResultError("password is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/follow-harvest", harvestRequest{
			Handle:       handle,
			MaxFollowers: request.GetInt("max_followers", 0),
			Username:     username,
			Password:     password,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var hr harvestResponse
		if err := json.Unmarshal(respBody, &hr); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !hr.Success {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", hr.Code, hr.Error)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "@%s: %d followers displayed, %d fetched\n\n", hr.Handle, hr.FollowerCount, hr.TotalFetched)
		for _, f := range hr.Followers {
			fmt.Fprintf(&b, "@%s", f.Handle)
			if f.DisplayName != "" {
				fmt.Fprintf(&b, " (%s)", f.DisplayName)
			}
			if f.JoinDate != "" {
				fmt.Fprintf(&b, " · %s", f.JoinDate)
			}
			b.WriteString("\n")
			if f.Bio != "" {
				fmt.Fprintf(&b, "  %s\n", strings.ReplaceAll(f.Bio, "\n", " "))
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
