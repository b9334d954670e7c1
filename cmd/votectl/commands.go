package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"breadit/client"
	"breadit/models"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "votectl",
		Short:         "Cast votes and inspect rankings against a breadit server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:3000", "server base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "session token returned by /api/auth/login")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(newVoteCmd(opts), newTopCmd(opts))
	return root
}

func newVoteCmd(opts *rootOptions) *cobra.Command {
	var (
		postID  string
		current string
		score   int
	)

	cmd := &cobra.Command{
		Use:   "vote UP|DOWN",
		Short: "Apply an optimistic vote and report the settled state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voteType := models.VoteType(strings.ToUpper(args[0]))
			initial, err := parseState(current, score)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			voter := client.NewHTTPVoter(opts.server, opts.token)
			voter.HTTP.Timeout = opts.timeout

			first := true
			ctrl := client.NewController(postID, initial, voter, client.WithOnChange(func(s client.State) {
				if first {
					fmt.Fprintf(out, "predicted: %s\n", formatState(s))
					first = false
					return
				}
				fmt.Fprintf(out, "rolled back: %s\n", formatState(s))
			}))

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			err = ctrl.Vote(ctx, voteType)
			fmt.Fprintf(out, "settled: %s\n", formatState(ctrl.State()))
			if errors.Is(err, client.ErrUnauthenticated) {
				return fmt.Errorf("vote not registered: login required")
			}
			if err != nil {
				return fmt.Errorf("vote not registered: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&postID, "post", "", "post id")
	cmd.Flags().StringVar(&current, "current", "NONE", "vote currently shown for this post (NONE, UP, DOWN)")
	cmd.Flags().IntVar(&score, "score", 0, "score currently displayed")
	_ = cmd.MarkFlagRequired("post")
	return cmd
}

func newTopCmd(opts *rootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the promoted posts ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			url := fmt.Sprintf("%s/api/posts/top?top=%d", strings.TrimRight(opts.server, "/"), top)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("fetch ranking: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return fmt.Errorf("fetch ranking: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}

			var payload struct {
				List []struct {
					Rank  int    `json:"rank"`
					ID    string `json:"id"`
					Title string `json:"title"`
					Score int64  `json:"score"`
				} `json:"list"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("decode ranking: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, item := range payload.List {
				fmt.Fprintf(out, "%3d  %5d  %s  %s\n", item.Rank, item.Score, item.ID, item.Title)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of posts")
	return cmd
}

func parseState(current string, score int) (client.State, error) {
	v := models.VoteType(strings.ToUpper(current))
	if v == "NONE" || v == "" {
		return client.State{CurrentVote: client.VoteNone, DisplayedScore: score}, nil
	}
	if !v.Valid() {
		return client.State{}, fmt.Errorf("invalid --current %q", current)
	}
	return client.State{CurrentVote: v, DisplayedScore: score}, nil
}

func formatState(s client.State) string {
	vote := string(s.CurrentVote)
	if vote == "" {
		vote = "NONE"
	}
	return fmt.Sprintf("vote=%s score=%d", vote, s.DisplayedScore)
}
