package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/config"
	"github.com/jt0826/inspectionapp-sub000/internal/logger"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/progress"
)

// 对照服务端缓存汇总与按条目记录本地重算的计数，
// 排查保存后汇总不一致的问题
func main() {
	var inspectionID = flag.String("inspection", "", "Inspection ID to check")
	var venueID = flag.String("venue", "", "Venue ID the inspection belongs to")
	var verbose = flag.Bool("v", false, "Print per-room counts even when they match")
	flag.Parse()

	if *inspectionID == "" || *venueID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "check-summary")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	client := api.NewClient(cfg, zlog)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	venue, err := findVenue(ctx, client, *venueID)
	if err != nil {
		log.Fatalf("venue: %v", err)
	}

	items, err := client.GetInspection(ctx, *inspectionID, "")
	if err != nil {
		log.Fatalf("get_inspection: %v", err)
	}

	localByRoom := progress.CountByRoom(items, venue)
	localTotals := progress.Totals(localByRoom)
	fmt.Printf("Inspection %s: %d item records, local totals pass=%d fail=%d na=%d pending=%d total=%d\n",
		*inspectionID, len(items),
		localTotals.Pass, localTotals.Fail, localTotals.NA, localTotals.Pending, localTotals.Total)

	summary, err := client.GetInspectionSummary(ctx, *inspectionID)
	switch {
	case errors.Is(err, api.ErrNoSummary):
		fmt.Println("Server has no cached summary for this inspection")
	case err != nil:
		log.Fatalf("get_inspection_summary: %v", err)
	default:
		compare(venue, localByRoom, localTotals, summary, *verbose)
	}

	verdict, err := client.CheckInspectionComplete(ctx, *inspectionID, *venueID)
	if err != nil {
		log.Fatalf("check_inspection_complete: %v", err)
	}
	fmt.Printf("Server completeness verdict: complete=%v", verdict.Complete)
	if verdict.Reason != "" {
		fmt.Printf(" (%s)", verdict.Reason)
	}
	if verdict.TotalExpected > 0 {
		fmt.Printf(" %d/%d", verdict.CompletedCount, verdict.TotalExpected)
	}
	fmt.Println()

	expected := progress.ExpectedTotals(venue)
	if localTotals.Total != expected.Total {
		fmt.Printf("WARNING: venue defines %d items but local counts cover %d\n",
			expected.Total, localTotals.Total)
	}
}

func compare(venue models.Venue, localByRoom map[string]models.StatusCounts, localTotals models.StatusCounts, summary models.Summary, verbose bool) {
	if summary.Totals != nil {
		s := *summary.Totals
		if s != localTotals {
			fmt.Printf("MISMATCH totals: server pass=%d fail=%d na=%d pending=%d total=%d\n",
				s.Pass, s.Fail, s.NA, s.Pending, s.Total)
		} else {
			fmt.Println("Totals match server summary")
		}
	}

	serverByRoom := progress.MergeSummaryByRoom(summary.ByRoom, venue)
	for _, room := range venue.Rooms {
		local := localByRoom[room.ID]
		server := serverByRoom[room.ID]
		if local != server {
			fmt.Printf("MISMATCH room %s (%s): local pass=%d fail=%d na=%d pending=%d, server pass=%d fail=%d na=%d pending=%d\n",
				room.ID, room.Name,
				local.Pass, local.Fail, local.NA, local.Pending,
				server.Pass, server.Fail, server.NA, server.Pending)
		} else if verbose {
			fmt.Printf("room %s (%s): pass=%d fail=%d na=%d pending=%d total=%d\n",
				room.ID, room.Name, local.Pass, local.Fail, local.NA, local.Pending, local.Total)
		}
	}
	if summary.UpdatedAt != "" {
		fmt.Printf("Summary last updated %s by %s\n", summary.UpdatedAt, summary.UpdatedBy)
	}
}

func findVenue(ctx context.Context, client *api.Client, venueID string) (models.Venue, error) {
	venues, err := client.GetVenues(ctx)
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
