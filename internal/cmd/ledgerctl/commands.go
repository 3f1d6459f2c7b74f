package ledgerctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	challengeapp "github.com/louisbranch/challenge.space/internal/services/challenge/app"
	"github.com/louisbranch/challenge.space/internal/services/challenge/auth"
	"github.com/louisbranch/challenge.space/internal/services/challenge/domain"
	"github.com/louisbranch/challenge.space/internal/services/challenge/storage"
	schedulerstorage "github.com/louisbranch/challenge.space/internal/services/scheduler/storage"
)

// HistoryStore is the scheduler attempt log read by the history command.
type HistoryStore interface {
	schedulerstorage.AttemptStore
	Close() error
}

// Deps are the collaborators a command session runs against. Ledger is
// only required by commands that touch the ledger.
type Deps struct {
	Ledger      challengeapp.Ledger
	Blobs       storage.BlobStore
	Issuer      *auth.Issuer
	OpenHistory func(ctx context.Context) (HistoryStore, error)
	Probe       func(ctx context.Context, addr, service string, timeout time.Duration) error
	Logf        func(string, ...any)
}

type session struct {
	deps     Deps
	svc      *challengeapp.Service
	resolver *auth.Resolver
	token    string
	stdin    io.Reader
	out      io.Writer
}

type command struct {
	usage   string
	offline bool
	run     func(ctx context.Context, s *session, args []string) error
}

var commands = map[string]command{
	"users create":         {usage: "-id ID -email EMAIL -role ROLE", run: runUsersCreate},
	"users get":            {usage: "-id ID", run: runUsersGet},
	"users list":           {run: runUsersList},
	"login":                {usage: "-id ID", run: runLogin},
	"projects create":      {usage: "-f FILE", run: runProjectsCreate},
	"projects update":      {usage: "-id ID -f FILE", run: runProjectsUpdate},
	"projects get":         {usage: "-id ID", run: runProjectsGet},
	"projects list":        {run: runProjectsList},
	"challenges create":    {usage: "-f FILE", run: runChallengesCreate},
	"challenges update":    {usage: "-id ID -f FILE", run: runChallengesUpdate},
	"challenges get":       {usage: "-id ID", run: runChallengesGet},
	"challenges list":      {run: runChallengesList},
	"challenges ongoing":   {run: runChallengesOngoing},
	"members register":     {usage: "-challenge ID", run: runMembersRegister},
	"members unregister":   {usage: "-challenge ID", run: runMembersUnregister},
	"reviewers register":   {usage: "-challenge ID -reviewer ID", run: runReviewersRegister},
	"reviewers unregister": {usage: "-challenge ID -reviewer ID", run: runReviewersUnregister},
	"submissions upload":   {usage: "-challenge ID -file PATH", run: runSubmissionsUpload},
	"submissions download": {usage: "-challenge ID -id ID [-out DIR]", run: runSubmissionsDownload},
	"scorecard create":     {usage: "-challenge ID -f FILE", run: runScorecardCreate},
	"review create":        {usage: "-challenge ID -f FILE", run: runReviewCreate},
	"appeal create":        {usage: "-challenge ID -f FILE", run: runAppealCreate},
	"appeal respond":       {usage: "-challenge ID -f FILE", run: runAppealRespond},
	"phase transition":     {usage: "-challenge ID -to PHASE", run: runPhaseTransition},
	"phase evaluate":       {usage: "-challenge ID", run: runPhaseEvaluate},
	"history":              {usage: "[-challenge ID] [-limit N]", offline: true, run: runHistory},
	"probe":                {usage: "-addr HOST:PORT [-service NAME]", offline: true, run: runProbe},
}

// lookup splits args into a command and its own arguments. Commands are
// one or two words long.
func lookup(args []string) (string, command, []string, bool) {
	if len(args) >= 2 {
		name := args[0] + " " + args[1]
		if cmd, ok := commands[name]; ok {
			return name, cmd, args[2:], true
		}
	}
	if len(args) >= 1 {
		if cmd, ok := commands[args[0]]; ok {
			return args[0], cmd, args[1:], true
		}
	}
	return "", command{}, nil, false
}

// NeedsLedger reports whether the command named by args reads or writes
// the ledger.
func NeedsLedger(args []string) bool {
	_, cmd, _, ok := lookup(args)
	return ok && !cmd.offline
}

// Usage writes the command list.
func Usage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "usage: ledgerctl [global flags] <command> [flags]")
	fmt.Fprintln(out, "commands:")
	for _, name := range names {
		fmt.Fprintf(out, "  %-22s %s\n", name, commands[name].usage)
	}
}

// Execute runs the command named by args. token, when set, is the bearer
// token of the caller; an empty token runs the command anonymously.
func Execute(ctx context.Context, deps Deps, token string, args []string, stdin io.Reader, out io.Writer) error {
	name, cmd, rest, ok := lookup(args)
	if !ok {
		Usage(out)
		return fmt.Errorf("unknown command %q", strings.Join(args, " "))
	}
	s := &session{deps: deps, token: strings.TrimSpace(token), stdin: stdin, out: out}
	if !cmd.offline {
		if deps.Ledger == nil {
			return errors.New("ledger is not configured")
		}
		opts := []challengeapp.Option{challengeapp.WithLogger(deps.Logf)}
		if deps.Blobs != nil {
			opts = append(opts, challengeapp.WithBlobStore(deps.Blobs))
		}
		if deps.Issuer != nil {
			opts = append(opts, challengeapp.WithTokenIssuer(deps.Issuer))
		}
		s.svc = challengeapp.NewService(deps.Ledger, opts...)
		if deps.Issuer != nil {
			s.resolver = auth.NewResolver(deps.Issuer, s.svc)
		}
	}
	if err := cmd.run(ctx, s, rest); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// requester resolves the session token. Role checks stay with the service.
func (s *session) requester(ctx context.Context) (*domain.Requester, error) {
	if s.token == "" {
		return nil, nil
	}
	if s.resolver == nil {
		return nil, errors.New("token verification needs CHALLENGE_SPACE_JWT_SECRET")
	}
	return s.resolver.Authenticate(ctx, "Bearer "+s.token, auth.Policy{Anonymous: true})
}

// identified resolves the session token and requires one.
func (s *session) identified(ctx context.Context) (*domain.Requester, error) {
	requester, err := s.requester(ctx)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "a token is required (-token)")
	}
	return requester, nil
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string, required map[string]*string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	var missing []string
	for name, value := range required {
		if strings.TrimSpace(*value) == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

func runUsersCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("users create")
	id := fs.String("id", "", "member id")
	email := fs.String("email", "", "member email")
	role := fs.String("role", "", "member role")
	if err := parse(fs, args, map[string]*string{"id": id, "email": email, "role": role}); err != nil {
		return err
	}
	user, err := s.svc.CreateUser(ctx, challengeapp.UserInput{MemberID: *id, Email: *email, Role: domain.Role(*role)})
	if err != nil {
		return err
	}
	return writeOutput(s.out, user)
}

func runUsersGet(ctx context.Context, s *session, args []string) error {
	fs := newFlags("users get")
	id := fs.String("id", "", "member id")
	if err := parse(fs, args, map[string]*string{"id": id}); err != nil {
		return err
	}
	user, err := s.svc.GetUser(ctx, *id)
	if err != nil {
		return err
	}
	return writeOutput(s.out, user)
}

func runUsersList(ctx context.Context, s *session, _ []string) error {
	users, err := s.svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	return writeOutput(s.out, users)
}

func runLogin(ctx context.Context, s *session, args []string) error {
	fs := newFlags("login")
	id := fs.String("id", "", "member id")
	if err := parse(fs, args, map[string]*string{"id": id}); err != nil {
		return err
	}
	token, err := s.svc.Login(ctx, *id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, token)
	return err
}

func runProjectsCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("projects create")
	file := fs.String("f", "", "project YAML file")
	if err := parse(fs, args, map[string]*string{"f": file}); err != nil {
		return err
	}
	var in projectInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	project, err := s.svc.CreateProject(ctx, requester, in.app())
	if err != nil {
		return err
	}
	return writeOutput(s.out, project)
}

func runProjectsUpdate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("projects update")
	id := fs.String("id", "", "project id")
	file := fs.String("f", "", "project update YAML file")
	if err := parse(fs, args, map[string]*string{"id": id, "f": file}); err != nil {
		return err
	}
	var in projectUpdateInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	project, err := s.svc.UpdateProject(ctx, requester, *id, in.app())
	if err != nil {
		return err
	}
	return writeOutput(s.out, project)
}

func runProjectsGet(ctx context.Context, s *session, args []string) error {
	fs := newFlags("projects get")
	id := fs.String("id", "", "project id")
	if err := parse(fs, args, map[string]*string{"id": id}); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	project, err := s.svc.GetProject(ctx, requester, *id)
	if err != nil {
		return err
	}
	return writeOutput(s.out, project)
}

func runProjectsList(ctx context.Context, s *session, _ []string) error {
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	projects, err := s.svc.ListProjects(ctx, requester)
	if err != nil {
		return err
	}
	return writeOutput(s.out, projects)
}

func runChallengesCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("challenges create")
	file := fs.String("f", "", "challenge YAML file")
	if err := parse(fs, args, map[string]*string{"f": file}); err != nil {
		return err
	}
	var in challengeInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	agg, err := s.svc.CreateChallenge(ctx, requester, in.app())
	if err != nil {
		return err
	}
	return writeOutput(s.out, agg)
}

func runChallengesUpdate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("challenges update")
	id := fs.String("id", "", "challenge id")
	file := fs.String("f", "", "challenge update YAML file")
	if err := parse(fs, args, map[string]*string{"id": id, "f": file}); err != nil {
		return err
	}
	var in challengeUpdateInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	challenge, err := s.svc.UpdateChallenge(ctx, requester, *id, in.app())
	if err != nil {
		return err
	}
	return writeOutput(s.out, challenge)
}

func runChallengesGet(ctx context.Context, s *session, args []string) error {
	fs := newFlags("challenges get")
	id := fs.String("id", "", "challenge id")
	if err := parse(fs, args, map[string]*string{"id": id}); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	agg, err := s.svc.GetChallenge(ctx, requester, *id)
	if err != nil {
		return err
	}
	return writeOutput(s.out, agg)
}

func runChallengesList(ctx context.Context, s *session, _ []string) error {
	challenges, err := s.svc.ListChallenges(ctx)
	if err != nil {
		return err
	}
	return writeOutput(s.out, challenges)
}

func runChallengesOngoing(ctx context.Context, s *session, _ []string) error {
	ids, err := s.svc.OngoingChallengeIDs(ctx)
	if err != nil {
		return err
	}
	return writeOutput(s.out, ids)
}

func runMembersRegister(ctx context.Context, s *session, args []string) error {
	return runMembership(ctx, s, "members register", args, s.svc.RegisterMember)
}

func runMembersUnregister(ctx context.Context, s *session, args []string) error {
	return runMembership(ctx, s, "members unregister", args, s.svc.UnregisterMember)
}

func runMembership(ctx context.Context, s *session, name string, args []string, apply func(context.Context, *domain.Requester, string) error) error {
	fs := newFlags(name)
	challengeID := fs.String("challenge", "", "challenge id")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID}); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	if err := apply(ctx, requester, *challengeID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "ok: %s %s\n", name, *challengeID)
	return err
}

func runReviewersRegister(ctx context.Context, s *session, args []string) error {
	return runReviewerAssignment(ctx, s, "reviewers register", args, s.svc.RegisterReviewer)
}

func runReviewersUnregister(ctx context.Context, s *session, args []string) error {
	return runReviewerAssignment(ctx, s, "reviewers unregister", args, s.svc.UnregisterReviewer)
}

func runReviewerAssignment(ctx context.Context, s *session, name string, args []string, apply func(context.Context, *domain.Requester, string, string) error) error {
	fs := newFlags(name)
	challengeID := fs.String("challenge", "", "challenge id")
	reviewerID := fs.String("reviewer", "", "reviewer member id")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "reviewer": reviewerID}); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	if err := apply(ctx, requester, *challengeID, *reviewerID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "ok: %s %s %s\n", name, *challengeID, *reviewerID)
	return err
}

func runSubmissionsUpload(ctx context.Context, s *session, args []string) error {
	fs := newFlags("submissions upload")
	challengeID := fs.String("challenge", "", "challenge id")
	file := fs.String("file", "", "submission file")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "file": file}); err != nil {
		return err
	}
	requester, err := s.identified(ctx)
	if err != nil {
		return err
	}
	// The service removes the staged file, so it gets a copy.
	staged, err := stage(*file)
	if err != nil {
		return err
	}
	submission, err := s.svc.UploadSubmission(ctx, requester, challengeapp.Upload{
		ChallengeID:      *challengeID,
		MemberID:         requester.MemberID,
		OriginalFileName: filepath.Base(*file),
		Path:             staged,
	})
	if err != nil {
		return err
	}
	return writeOutput(s.out, submission)
}

func stage(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open submission file: %w", err)
	}
	defer src.Close()
	dst, err := os.CreateTemp("", "ledgerctl-upload-*")
	if err != nil {
		return "", fmt.Errorf("stage submission file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("stage submission file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("stage submission file: %w", err)
	}
	return dst.Name(), nil
}

func runSubmissionsDownload(ctx context.Context, s *session, args []string) error {
	fs := newFlags("submissions download")
	challengeID := fs.String("challenge", "", "challenge id")
	submissionID := fs.String("id", "", "submission id")
	outDir := fs.String("out", ".", "directory to write the file to")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "id": submissionID}); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	download, err := s.svc.DownloadSubmission(ctx, requester, *challengeID, *submissionID)
	if err != nil {
		return err
	}
	target := filepath.Join(*outDir, filepath.Base(download.FileName))
	if err := os.WriteFile(target, download.Content, 0o644); err != nil {
		return fmt.Errorf("write submission: %w", err)
	}
	_, err = fmt.Fprintln(s.out, target)
	return err
}

func runScorecardCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("scorecard create")
	challengeID := fs.String("challenge", "", "challenge id")
	file := fs.String("f", "", "scorecard YAML file")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "f": file}); err != nil {
		return err
	}
	var in scorecardInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.requester(ctx)
	if err != nil {
		return err
	}
	scorecard, err := s.svc.CreateScorecard(ctx, requester, *challengeID, in.domain())
	if err != nil {
		return err
	}
	return writeOutput(s.out, scorecard)
}

func runReviewCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("review create")
	challengeID := fs.String("challenge", "", "challenge id")
	file := fs.String("f", "", "review YAML file")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "f": file}); err != nil {
		return err
	}
	var in reviewInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.identified(ctx)
	if err != nil {
		return err
	}
	review, err := s.svc.CreateReview(ctx, requester, *challengeID, in.domain(requester.MemberID))
	if err != nil {
		return err
	}
	return writeOutput(s.out, review)
}

func runAppealCreate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("appeal create")
	challengeID := fs.String("challenge", "", "challenge id")
	file := fs.String("f", "", "appeal YAML file")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "f": file}); err != nil {
		return err
	}
	var in appealInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.identified(ctx)
	if err != nil {
		return err
	}
	appeal, err := s.svc.CreateAppeal(ctx, requester, *challengeID, in.domain(requester.MemberID))
	if err != nil {
		return err
	}
	return writeOutput(s.out, appeal)
}

func runAppealRespond(ctx context.Context, s *session, args []string) error {
	fs := newFlags("appeal respond")
	challengeID := fs.String("challenge", "", "challenge id")
	file := fs.String("f", "", "appeal response YAML file")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "f": file}); err != nil {
		return err
	}
	var in responseInput
	if err := readInput(*file, s.stdin, &in); err != nil {
		return err
	}
	requester, err := s.identified(ctx)
	if err != nil {
		return err
	}
	response, err := s.svc.CreateAppealResponse(ctx, requester, *challengeID, in.domain(requester.MemberID))
	if err != nil {
		return err
	}
	return writeOutput(s.out, response)
}

func runPhaseTransition(ctx context.Context, s *session, args []string) error {
	fs := newFlags("phase transition")
	challengeID := fs.String("challenge", "", "challenge id")
	target := fs.String("to", "", "target phase")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID, "to": target}); err != nil {
		return err
	}
	requester, err := s.identified(ctx)
	if err != nil {
		return err
	}
	if !requester.Is(domain.RoleManager) {
		return apperrors.New(apperrors.CodeForbidden, "only managers may force a phase transition")
	}
	challenge, err := s.svc.TransitionPhase(ctx, *challengeID, domain.PhaseName(*target))
	if err != nil {
		return err
	}
	return writeOutput(s.out, challenge)
}

func runPhaseEvaluate(ctx context.Context, s *session, args []string) error {
	fs := newFlags("phase evaluate")
	challengeID := fs.String("challenge", "", "challenge id")
	if err := parse(fs, args, map[string]*string{"challenge": challengeID}); err != nil {
		return err
	}
	step, err := s.svc.EvaluatePhaseStep(ctx, *challengeID)
	if err != nil {
		return err
	}
	return writeOutput(s.out, step)
}

func runHistory(ctx context.Context, s *session, args []string) error {
	fs := newFlags("history")
	challengeID := fs.String("challenge", "", "only attempts for this challenge")
	limit := fs.Int("limit", 20, "max attempts to print")
	if err := parse(fs, args, nil); err != nil {
		return err
	}
	if s.deps.OpenHistory == nil {
		return errors.New("attempt history is not configured")
	}
	store, err := s.deps.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var attempts []schedulerstorage.AttemptRecord
	if *challengeID != "" {
		attempts, err = store.ListChallengeAttempts(ctx, *challengeID, *limit)
	} else {
		attempts, err = store.ListAttempts(ctx, *limit)
	}
	if err != nil {
		return err
	}
	for _, a := range attempts {
		line := fmt.Sprintf("%s  %-10s %-9s %s -> %s", a.CreatedAt.UTC().Format(time.RFC3339), a.ChallengeID, a.Outcome, a.FromPhase, a.ToPhase)
		if a.LastError != "" {
			line += "  error: " + a.LastError
		}
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			return err
		}
	}
	return nil
}

func runProbe(ctx context.Context, s *session, args []string) error {
	fs := newFlags("probe")
	addr := fs.String("addr", "", "health server address")
	service := fs.String("service", "scheduler.runtime", "health service name")
	timeout := fs.Duration("timeout", 5*time.Second, "probe timeout")
	if err := parse(fs, args, map[string]*string{"addr": addr}); err != nil {
		return err
	}
	if s.deps.Probe == nil {
		return errors.New("probe is not configured")
	}
	if err := s.deps.Probe(ctx, *addr, *service, *timeout); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.out, "%s is serving %s\n", *addr, *service)
	return err
}
