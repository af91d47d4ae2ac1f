package cmd

import (
	"fmt"
	"os"

	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/history"
	log "github.com/sirupsen/logrus"
)

// ShowHistory lists the stored summaries, newest first.
func ShowHistory(cfg *config.Config) {
	store := history.NewStore(cfg.HistoryFile)
	records, err := store.List()
	if err != nil {
		log.Fatalf("failed to read history: %v", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("No summaries recorded yet.")
		return
	}

	w := os.Stdout
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s  %-12s  %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.VideoID, r.Title)
	}
}
