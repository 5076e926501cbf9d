package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/auth"
	"github.com/jt0826/inspectionapp-sub000/internal/config"
	"github.com/jt0826/inspectionapp-sub000/internal/logger"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/progress"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
	"github.com/jt0826/inspectionapp-sub000/internal/report"
	"github.com/jt0826/inspectionapp-sub000/internal/uploader"
	"github.com/jt0826/inspectionapp-sub000/internal/view"
)

const usage = `Usage: inspection-client <command> [flags]

Commands:
  venues                      list venues and their checklist sizes
  venue-delete -venue <id>    delete a venue (cascades server-side)
  home                        ongoing and recently completed inspections
  start     -venue <id>       create a new inspection for a venue
  rooms     -inspection <id> -venue <id>
                              per-room progress for an inspection
  save      -inspection <id> -venue <id> -item <id> -status <pass|fail|na>
                              set one item status and save
  history   [-query s] [-from date] [-to date]
                              full inspection history with local filters
  delete    -inspection <id>  delete an inspection and its photos
  dashboard [-days n]         server-aggregated dashboard metrics
  export    -inspection <id> -venue <id> -out <file.xlsx>
                              write an Excel report
`

// consoleNotifier 把瞬态通知打到标准错误
type consoleNotifier struct{}

func (consoleNotifier) Info(msg string)  { fmt.Fprintln(os.Stderr, msg) }
func (consoleNotifier) Error(msg string) { fmt.Fprintln(os.Stderr, "error: "+msg) }

// consoleConfirmer 终端确认；-yes 时直接放行
type consoleConfirmer struct {
	assumeYes bool
}

func (c consoleConfirmer) Confirm(prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	var answer string
	_, _ = fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

type app struct {
	cfg      *config.Config
	log      *zap.Logger
	client   *api.Client
	bus      *refresh.Bus
	notifier view.Notifier
	identity auth.Identity
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "inspection-client")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	identity, err := auth.FromIDToken(cfg.Auth.IDToken)
	if err != nil {
		log.Warn("Could not decode identity from ID token", zap.Error(err))
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		client:   api.NewClient(cfg, log),
		bus:      refresh.NewBus(),
		notifier: consoleNotifier{},
		identity: identity,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "venues":
		err = a.venues(ctx)
	case "venue-delete":
		err = a.venueDelete(ctx, args)
	case "home":
		err = a.home(ctx)
	case "start":
		err = a.start(ctx, args)
	case "rooms":
		err = a.rooms(ctx, args)
	case "save":
		err = a.save(ctx, args)
	case "history":
		err = a.history(ctx, args)
	case "delete":
		err = a.delete(ctx, args)
	case "dashboard":
		err = a.dashboard(ctx, args)
	case "export":
		err = a.export(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) venues(ctx context.Context) error {
	venues, err := a.client.GetVenues(ctx)
	if err != nil {
		return err
	}
	for _, v := range venues {
		fmt.Printf("%-24s %-30s %d rooms, %d items\n", v.ID, v.Name, len(v.Rooms), v.ItemCount())
	}
	return nil
}

func (a *app) venueDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("venue-delete", flag.ExitOnError)
	venueID := fs.String("venue", "", "venue id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)
	if *venueID == "" {
		return fmt.Errorf("venue-delete: -venue is required")
	}

	venues := view.NewVenuesView(a.client, a.bus, a.notifier, consoleConfirmer{assumeYes: *yes}, a.log)
	if err := venues.Refresh(ctx); err != nil {
		return err
	}
	return venues.Delete(ctx, *venueID)
}

func (a *app) home(ctx context.Context) error {
	home := view.NewHomeView(a.client, a.bus, a.notifier, a.log, a.cfg.Home.CompletedLimit)
	if err := home.Refresh(ctx); err != nil {
		return err
	}
	completed, ongoing := home.Snapshot()
	fmt.Printf("Ongoing (%d):\n", len(ongoing))
	for _, ins := range ongoing {
		fmt.Printf("  %-40s %-24s %s\n", ins.ID, ins.VenueName, ins.CreatedAt)
	}
	fmt.Printf("Recently completed (%d):\n", len(completed))
	for _, ins := range completed {
		fmt.Printf("  %-40s %-24s %s\n", ins.ID, ins.VenueName, ins.CompletedAt)
	}
	return nil
}

func (a *app) start(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	venueID := fs.String("venue", "", "venue id")
	_ = fs.Parse(args)
	if *venueID == "" {
		return fmt.Errorf("start: -venue is required")
	}

	venue, err := a.findVenue(ctx, *venueID)
	if err != nil {
		return err
	}
	home := view.NewHomeView(a.client, a.bus, a.notifier, a.log, a.cfg.Home.CompletedLimit)
	ins, err := home.StartInspection(ctx, venue, a.identity.DisplayName())
	if err != nil {
		return err
	}
	fmt.Println(ins.ID)
	return nil
}

func (a *app) rooms(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rooms", flag.ExitOnError)
	inspectionID := fs.String("inspection", "", "inspection id")
	venueID := fs.String("venue", "", "venue id")
	_ = fs.Parse(args)
	if *inspectionID == "" || *venueID == "" {
		return fmt.Errorf("rooms: -inspection and -venue are required")
	}

	venue, err := a.findVenue(ctx, *venueID)
	if err != nil {
		return err
	}
	rl := view.NewRoomListView(a.client, a.bus, a.notifier, a.log, *inspectionID, venue)
	if err := rl.Refresh(ctx); err != nil {
		return err
	}
	if rl.Placeholder() {
		fmt.Println("no summary available yet (—/—)")
		return nil
	}
	for _, room := range rl.Rooms() {
		mark := " "
		if room.Inspected {
			mark = "*"
		}
		fmt.Printf("%s %-24s pass=%d fail=%d na=%d pending=%d (%.0f%%)\n",
			mark, room.Room.Name, room.Counts.Pass, room.Counts.Fail,
			room.Counts.NA, room.Counts.Pending, room.Percent)
	}
	totals := rl.Totals()
	fmt.Printf("  total: %d/%d assessed\n", totals.Total-totals.Pending, totals.Total)
	return nil
}

func (a *app) save(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	inspectionID := fs.String("inspection", "", "inspection id")
	venueID := fs.String("venue", "", "venue id")
	itemID := fs.String("item", "", "checklist item id")
	status := fs.String("status", "", "pass, fail or na")
	notes := fs.String("notes", "", "optional notes")
	photo := fs.String("photo", "", "optional photo file to attach")
	_ = fs.Parse(args)
	if *inspectionID == "" || *itemID == "" || *status == "" {
		return fmt.Errorf("save: -inspection, -item and -status are required")
	}

	ins, err := a.findInspection(ctx, *inspectionID)
	if err != nil {
		return err
	}
	if *venueID != "" {
		ins.VenueID = *venueID
	}
	items, err := a.client.GetInspection(ctx, *inspectionID, "")
	if err != nil {
		return err
	}
	ins.Items = items

	up := uploader.NewUploader(a.client, a.log)
	form := view.NewForm(a.client, up, a.bus, a.notifier, consoleConfirmer{}, a.log, ins, a.identity.DisplayName())
	form.SetStatus(*itemID, *status)
	if *notes != "" {
		form.SetNotes(*itemID, *notes)
	}
	if *photo != "" {
		data, err := os.ReadFile(*photo)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		form.AttachPhoto(*itemID, *photo, "image/jpeg", data)
	}

	result, err := form.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("saved %d items\n", result.Written)
	if result.Complete != nil && result.Complete.Complete {
		fmt.Println("inspection is now complete")
	}
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	query := fs.String("query", "", "search text")
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	hist := view.NewHistoryView(a.client, a.bus, a.notifier, consoleConfirmer{}, a.log)
	if err := hist.Refresh(ctx); err != nil {
		return err
	}
	hist.SetQuery(*query)
	hist.SetDateRange(*from, *to)
	for _, ins := range hist.Snapshot() {
		when := ins.CompletedAt
		if when == "" {
			when = ins.CreatedAt
		}
		fmt.Printf("%-40s %-24s %-12s %s\n", ins.ID, ins.VenueName, ins.Status, when)
	}
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	inspectionID := fs.String("inspection", "", "inspection id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args)
	if *inspectionID == "" {
		return fmt.Errorf("delete: -inspection is required")
	}

	hist := view.NewHistoryView(a.client, a.bus, a.notifier, consoleConfirmer{assumeYes: *yes}, a.log)
	if err := hist.Refresh(ctx); err != nil {
		return err
	}
	return hist.Delete(ctx, *inspectionID)
}

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	days := fs.Int("days", a.cfg.Home.DashboardDays, "trend window in days")
	_ = fs.Parse(args)

	dash := view.NewDashboardView(a.client, a.bus, a.notifier, a.log, *days)
	if err := dash.Refresh(ctx); err != nil {
		return err
	}
	data, _ := dash.Snapshot()
	m := data.Metrics
	fmt.Printf("inspections: %d total, %d ongoing, %d completed, %d images\n",
		m.TotalInspections, m.Ongoing, m.Completed, m.ImagesCount)
	if m.FailRate != nil {
		fmt.Printf("fail rate: %.1f%%\n", *m.FailRate)
	}
	for _, va := range data.VenueAnalytics {
		fmt.Printf("  %-24s %d inspections, fail rate %.1f%%\n", va.Venue, va.Inspections, va.FailRate)
	}
	for _, ip := range data.InspectorPerformance {
		fmt.Printf("  %-24s %d completed, pass rate %.1f%%, avg %.1fh\n",
			ip.Inspector, ip.Completed, ip.PassRate, ip.AvgTimeHours)
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	inspectionID := fs.String("inspection", "", "inspection id")
	venueID := fs.String("venue", "", "venue id")
	out := fs.String("out", "inspection-report.xlsx", "output file")
	_ = fs.Parse(args)
	if *inspectionID == "" || *venueID == "" {
		return fmt.Errorf("export: -inspection and -venue are required")
	}

	venue, err := a.findVenue(ctx, *venueID)
	if err != nil {
		return err
	}
	items, err := a.client.GetInspection(ctx, *inspectionID, "")
	if err != nil {
		return err
	}
	ins := models.Inspection{ID: *inspectionID, VenueID: venue.ID, VenueName: venue.Name, Items: items}
	if summary, err := a.client.GetInspectionSummary(ctx, *inspectionID); err == nil {
		ins.Totals = summary.Totals
		ins.ByRoom = summary.ByRoom
	}

	data, err := report.GenerateInspectionReport(ins, venue)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	totals := progress.Totals(progress.CountByRoom(ins.Items, venue))
	fmt.Printf("wrote %s (%d items, %d assessed)\n", *out, totals.Total, totals.Total-totals.Pending)
	return nil
}

func (a *app) findVenue(ctx context.Context, venueID string) (models.Venue, error) {
	venues, err := a.client.GetVenues(ctx)
	if err != nil {
		return models.Venue{}, err
	}
	for _, v := range venues {
		if v.ID == venueID {
			return v, nil
		}
	}
	return models.Venue{}, fmt.Errorf("venue %s not found", venueID)
}

// findInspection 拉取真实记录作为表单底座。状态必须来自服务端：
// 已完成的巡检由表单的只读判定拒绝编辑。
func (a *app) findInspection(ctx context.Context, inspectionID string) (models.Inspection, error) {
	completed, ongoing, err := a.client.ListInspections(ctx, -1)
	if err != nil {
		return models.Inspection{}, err
	}
	for _, ins := range ongoing {
		if ins.ID == inspectionID {
			return ins, nil
		}
	}
	for _, ins := range completed {
		if ins.ID == inspectionID {
			return ins, nil
		}
	}
	return models.Inspection{}, fmt.Errorf("inspection %s not found", inspectionID)
}
