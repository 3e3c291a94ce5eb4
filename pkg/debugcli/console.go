package debugcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/drafts"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/listener"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/pkg/errors"
)

var (
	boldBlue   = color.New(color.FgBlue, color.Bold).SprintFunc()
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	boldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	dimText    = color.New(color.Faint).SprintFunc()
	cyanText   = color.New(color.FgCyan).SprintFunc()

	// To track double Ctrl+C for exit
	lastInterrupt *time.Time
)

// ConsoleOptions defines configuration options for the debug console
type ConsoleOptions struct {
	ProjectID      string   // Project to select before running commands
	UserID         string   // Resolve CTAs with this member's role instead of Role
	Role           string   // Simulated viewer role, OWNER when empty
	NonInteractive bool     // If true, run in non-interactive mode (execute command and exit)
	Command        []string // Command to execute in non-interactive mode
}

// DebugConsole represents the debug console state
type DebugConsole struct {
	ctx           context.Context
	out           io.Writer
	activeProject string
	role          types.MemberRole
	userID        string
	bundles       []types.ActionBundle
	readline      *readline.Instance
	options       ConsoleOptions
}

// RunConsole runs the debug console. Postgres must already be initialized.
func RunConsole(options ConsoleOptions) error {
	logger.SetDebug()

	console := newConsole(context.Background(), os.Stdout, options)

	if options.Role != "" {
		if err := console.setRole(options.Role); err != nil {
			return err
		}
	}
	console.userID = options.UserID

	if options.ProjectID != "" {
		if err := console.selectProject(options.ProjectID); err != nil {
			return errors.Wrapf(err, "failed to select project with ID %s", options.ProjectID)
		}
	}

	if options.NonInteractive {
		if len(options.Command) == 0 {
			return errors.New("no command specified in non-interactive mode")
		}
		if console.activeProject == "" {
			return errors.New("project ID is required for non-interactive mode")
		}
		return console.executeCommand(options.Command[0], options.Command[1:])
	}

	if err := console.run(); err != nil {
		return errors.Wrap(err, "console error")
	}

	return nil
}

func newConsole(ctx context.Context, out io.Writer, options ConsoleOptions) *DebugConsole {
	return &DebugConsole{
		ctx:     ctx,
		out:     out,
		role:    types.MemberRoleOwner,
		options: options,
	}
}

func (c *DebugConsole) run() error {
	fmt.Fprintln(c.out, boldBlue("EngineO Work Queue Debug Console"))
	fmt.Fprintln(c.out, dimText("Type 'help' for available commands, 'exit' to quit"))
	fmt.Fprintln(c.out, dimText("Use '/project <id>' to select a project"))
	fmt.Fprintln(c.out, dimText("Press Ctrl+C twice in quick succession to exit"))
	fmt.Fprintln(c.out)

	var historyFile string
	usr, err := user.Current()
	if err == nil {
		historyFile = filepath.Join(usr.HomeDir, ".engineo_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 boldYellow("[NO PROJECT]> "),
		HistoryFile:            historyFile,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
		HistoryLimit:           1000,
		AutoComplete:           c.completer(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize readline")
	}
	defer rl.Close()

	c.readline = rl

	for {
		rl.SetPrompt(c.prompt())

		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Fprintln(c.out, "^C")
				if lastInterrupt != nil && time.Since(*lastInterrupt) < 2*time.Second {
					fmt.Fprintln(c.out, "Exiting...")
					return nil
				}
				now := time.Now()
				lastInterrupt = &now
				continue
			} else if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "failed to read input")
		}

		cmd, args := splitCommand(input)
		if cmd == "" {
			continue
		}
		if cmd == "exit" || cmd == "quit" {
			return nil
		}

		if err := c.executeCommand(cmd, args); err != nil {
			fmt.Fprintln(c.out, boldRed("Error:"), err)
		}
	}
}

func (c *DebugConsole) prompt() string {
	if c.activeProject == "" {
		return boldYellow("[NO PROJECT]> ")
	}
	who := string(c.role)
	if c.userID != "" {
		who = c.userID
	}
	return boldGreen(fmt.Sprintf("project[%s as %s]> ", c.activeProject, who))
}

func (c *DebugConsole) completer() *readline.PrefixCompleter {
	roles := []readline.PrefixCompleterInterface{
		readline.PcItem(string(types.MemberRoleOwner)),
		readline.PcItem(string(types.MemberRoleEditor)),
		readline.PcItem(string(types.MemberRoleViewer)),
	}
	actions := []readline.PrefixCompleterInterface{}
	for _, a := range enqueueActions {
		actions = append(actions, readline.PcItem(a))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("/project"),
		readline.PcItem("/role", roles...),
		readline.PcItem("/user"),
		readline.PcItem("/help"),
		readline.PcItem("help"),
		readline.PcItem("list"),
		readline.PcItem("show"),
		readline.PcItem("diff"),
		readline.PcItem("transitions"),
		readline.PcItem("enqueue", actions...),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// splitCommand returns the command name without a leading slash.
func splitCommand(input string) (string, []string) {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return "", nil
	}
	return strings.TrimPrefix(parts[0], "/"), parts[1:]
}

func (c *DebugConsole) executeCommand(cmd string, args []string) error {
	switch cmd {
	case "help":
		c.showHelp()
		return nil
	case "project":
		if len(args) == 0 {
			if c.activeProject == "" {
				fmt.Fprintln(c.out, dimText("No project selected"))
			} else {
				fmt.Fprintf(c.out, "Active project: %s\n", c.activeProject)
			}
			return nil
		}
		return c.selectProject(args[0])
	case "role":
		if len(args) != 1 {
			return errors.New("usage: /role <OWNER|EDITOR|VIEWER>")
		}
		return c.setRole(args[0])
	case "user":
		if len(args) == 0 {
			c.userID = ""
			fmt.Fprintf(c.out, boldGreen("Resolving as role %s\n"), c.role)
			return nil
		}
		c.userID = args[0]
		fmt.Fprintf(c.out, boldGreen("Resolving as member %s\n"), c.userID)
		return nil
	}

	if c.activeProject == "" {
		return errors.New("no project selected, use '/project <id>'")
	}

	switch cmd {
	case "list":
		return c.listBundles()
	case "show":
		return c.showBundle(args)
	case "diff":
		return c.diffBundle(args)
	case "transitions":
		return c.showTransitions(args)
	case "enqueue":
		return c.enqueue(args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (c *DebugConsole) showHelp() {
	if c.options.NonInteractive {
		return
	}

	fmt.Fprintln(c.out, boldBlue("Slash Commands:"))
	fmt.Fprintln(c.out, "  "+boldGreen("/project")+" <id>          Select a project")
	fmt.Fprintln(c.out, "  "+boldGreen("/role")+" <role>           Resolve CTAs as OWNER, EDITOR or VIEWER")
	fmt.Fprintln(c.out, "  "+boldGreen("/user")+" [id]             Resolve CTAs as a project member, no id resets")
	fmt.Fprintln(c.out, "  "+boldGreen("/help")+"                  Show this help")
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, boldBlue("Work Queue Commands:"))
	fmt.Fprintln(c.out, "  "+boldGreen("list")+"                   Resolve and list every bundle in the project")
	fmt.Fprintln(c.out, "  "+boldGreen("show")+" <n|bundleId>      Show one bundle with its resolved CTAs")
	fmt.Fprintln(c.out, "  "+boldGreen("diff")+" <n|bundleId>      Show the draft preview for a bundle")
	fmt.Fprintln(c.out, "  "+boldGreen("transitions")+" <n|bundleId>  Show the states a bundle may move to")
	fmt.Fprintln(c.out, "  "+boldGreen("enqueue")+" <action> <n|bundleId>  Queue generate, request, approve, reject or apply")
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, boldBlue("General Commands:"))
	fmt.Fprintln(c.out, "  "+boldGreen("exit")+"                   Exit the console")
	fmt.Fprintln(c.out, "  "+boldGreen("quit")+"                   Exit the console")
	fmt.Fprintln(c.out)
}

func (c *DebugConsole) selectProject(id string) error {
	bundles, err := workqueue.ListActionBundles(c.ctx, id)
	if err != nil {
		return errors.Wrapf(err, "failed to list bundles for project %s", id)
	}

	c.activeProject = id
	c.bundles = bundles

	if !c.options.NonInteractive {
		fmt.Fprintf(c.out, boldGreen("Selected project: %s\n"), id)
		fmt.Fprintln(c.out, dimText(fmt.Sprintf("Found %d bundle(s)", len(bundles))))
	}
	return nil
}

func (c *DebugConsole) setRole(s string) error {
	role, err := parseRole(s)
	if err != nil {
		return err
	}
	c.role = role
	c.userID = ""
	if !c.options.NonInteractive {
		fmt.Fprintf(c.out, boldGreen("Resolving as role %s\n"), role)
	}
	return nil
}

func parseRole(s string) (types.MemberRole, error) {
	switch role := types.MemberRole(strings.ToUpper(strings.TrimSpace(s))); role {
	case types.MemberRoleOwner, types.MemberRoleEditor, types.MemberRoleViewer:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (c *DebugConsole) viewer() (types.ViewerCapabilities, error) {
	if c.userID == "" {
		return types.CapabilitiesForRole(c.role), nil
	}
	v, err := workqueue.GetViewerCapabilities(c.ctx, c.activeProject, c.userID)
	if err != nil {
		return v, errors.Wrapf(err, "failed to get capabilities for %s", c.userID)
	}
	return v, nil
}

func (c *DebugConsole) listBundles() error {
	bundles, err := workqueue.ListActionBundles(c.ctx, c.activeProject)
	if err != nil {
		return errors.Wrap(err, "failed to list bundles")
	}
	c.bundles = bundles

	if len(bundles) == 0 {
		fmt.Fprintln(c.out, dimText("No bundles found"))
		return nil
	}

	viewer, err := c.viewer()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, boldBlue("Work Queue:"))
	for i, r := range cta.ResolveAll(bundles, viewer, c.activeProject) {
		fmt.Fprintln(c.out, formatResolution(i+1, bundles[i], r))
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, dimText("Use 'show <n>' or 'diff <n>' for details"))
	return nil
}

// formatResolution renders one list row: index, state, CTAs, then the route.
func formatResolution(n int, b types.ActionBundle, r cta.Resolution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %d. %s %s\n", n, boldYellow(string(b.State)), b.BundleID)

	primary := boldGreen(r.Primary)
	if r.DisabledReason != "" {
		primary = dimText(r.Primary)
	}
	fmt.Fprintf(&sb, "     %s", primary)
	if r.Secondary != "" {
		fmt.Fprintf(&sb, " | %s", r.Secondary)
	}
	if r.DisabledReason != "" {
		fmt.Fprintf(&sb, " %s", boldRed("("+r.DisabledReason+")"))
	}
	fmt.Fprintf(&sb, "\n     %s", cyanText(r.Route))
	return sb.String()
}

// pickBundle finds a bundle by its 1-based list index or by ID.
func pickBundle(bundles []types.ActionBundle, ref string) (types.ActionBundle, bool) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(bundles) {
			return bundles[n-1], true
		}
		return types.ActionBundle{}, false
	}
	for _, b := range bundles {
		if b.BundleID == ref {
			return b, true
		}
	}
	return types.ActionBundle{}, false
}

func (c *DebugConsole) lookupBundle(args []string) (types.ActionBundle, error) {
	if len(args) != 1 {
		return types.ActionBundle{}, errors.New("expected exactly one bundle index or ID")
	}
	if b, ok := pickBundle(c.bundles, args[0]); ok {
		return b, nil
	}
	b, err := workqueue.GetActionBundle(c.ctx, args[0])
	if err != nil {
		return types.ActionBundle{}, errors.Wrapf(err, "failed to get bundle %s", args[0])
	}
	return *b, nil
}

func (c *DebugConsole) showBundle(args []string) error {
	b, err := c.lookupBundle(args)
	if err != nil {
		return err
	}
	viewer, err := c.viewer()
	if err != nil {
		return err
	}
	r := cta.Resolve(b, viewer, c.activeProject)
	playbookID, _ := cta.PlaybookTarget(b)

	fmt.Fprintln(c.out, boldBlue("Bundle:"), b.BundleID)
	fmt.Fprintf(c.out, "  type:      %s\n", b.BundleType)
	fmt.Fprintf(c.out, "  action:    %s\n", b.RecommendedActionKey)
	fmt.Fprintf(c.out, "  playbook:  %s\n", playbookID)
	fmt.Fprintf(c.out, "  state:     %s\n", boldYellow(string(b.State)))
	fmt.Fprintf(c.out, "  scope:     %s (%d)\n", b.ScopeType, b.ScopeCount)
	if b.ScopeQueryRef != nil {
		fmt.Fprintf(c.out, "  query:     %s\n", *b.ScopeQueryRef)
	}
	if b.Approval != nil {
		fmt.Fprintf(c.out, "  approval:  required=%t status=%s\n", b.Approval.ApprovalRequired, b.Approval.ApprovalStatus)
	}
	if b.Draft != nil {
		fmt.Fprintf(c.out, "  drafts:    %s (%d)\n", b.Draft.Status, b.Draft.Count)
	}
	if b.State == types.BundleStateFailed {
		if lastErr, err := workqueue.GetLastError(c.ctx, b.BundleID); err == nil && lastErr != "" {
			fmt.Fprintf(c.out, "  error:     %s\n", boldRed(lastErr))
		}
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, formatResolution(0, b, r))
	if len(r.ScopeAssetRefs) > 0 {
		fmt.Fprintln(c.out, dimText("     refs: "+strings.Join(r.ScopeAssetRefs, ", ")))
	}
	return nil
}

func (c *DebugConsole) diffBundle(args []string) error {
	b, err := c.lookupBundle(args)
	if err != nil {
		return err
	}
	ds, err := workqueue.ListDrafts(c.ctx, b.BundleID)
	if err != nil {
		return errors.Wrap(err, "failed to list drafts")
	}
	if len(ds) == 0 {
		fmt.Fprintln(c.out, dimText("No drafts for this bundle"))
		return nil
	}

	preview, err := drafts.Preview(ds)
	if err != nil {
		return errors.Wrap(err, "failed to render preview")
	}
	fmt.Fprint(c.out, colorizeDiff(preview))
	fmt.Fprintln(c.out, dimText(fmt.Sprintf("%d field(s) would change", drafts.Changed(ds))))
	return nil
}

func colorizeDiff(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			sb.WriteString(boldBlue(line))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(cyanText(line))
		case strings.HasPrefix(line, "+"):
			sb.WriteString(boldGreen(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(boldRed(line))
		default:
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func (c *DebugConsole) showTransitions(args []string) error {
	b, err := c.lookupBundle(args)
	if err != nil {
		return err
	}
	next := []string{}
	for _, s := range types.AllBundleStates() {
		if types.CanTransition(b.State, s) {
			next = append(next, string(s))
		}
	}
	if len(next) == 0 {
		fmt.Fprintf(c.out, "%s is terminal\n", boldYellow(string(b.State)))
		return nil
	}
	fmt.Fprintf(c.out, "%s -> %s\n", boldYellow(string(b.State)), strings.Join(next, ", "))
	return nil
}

var enqueueActions = []string{"generate", "request", "approve", "reject", "apply"}

// enqueueTarget maps a console action onto a worker channel and review decision.
func enqueueTarget(action string) (string, string, error) {
	switch action {
	case "generate":
		return listener.ChannelGenerateDrafts, "", nil
	case "request":
		return listener.ChannelRequestApproval, "", nil
	case "approve":
		return listener.ChannelReviewApproval, listener.DecisionApprove, nil
	case "reject":
		return listener.ChannelReviewApproval, listener.DecisionReject, nil
	case "apply":
		return listener.ChannelApplyBundle, "", nil
	default:
		return "", "", fmt.Errorf("unknown action %q, expected one of %s", action, strings.Join(enqueueActions, ", "))
	}
}

func (c *DebugConsole) enqueue(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: enqueue <action> <n|bundleId>")
	}
	if c.userID == "" {
		return errors.New("enqueue acts as a project member, use '/user <id>' first")
	}

	channel, decision, err := enqueueTarget(args[0])
	if err != nil {
		return err
	}
	b, err := c.lookupBundle(args[1:])
	if err != nil {
		return err
	}

	payload := listener.BundlePayload{
		BundleID: b.BundleID,
		UserID:   c.userID,
		Decision: decision,
	}
	if err := persistence.EnqueueWork(c.ctx, channel, payload); err != nil {
		return errors.Wrapf(err, "failed to enqueue %s", channel)
	}

	fmt.Fprintf(c.out, boldGreen("Queued %s for %s\n"), channel, b.BundleID)
	return nil
}
