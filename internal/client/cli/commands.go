package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
)

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrEmptyText       = errors.New("text must not be empty")
)

func (a *App) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

func (a *App) Mood(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s, err := GetSimpleText(a.reader, "Mood (1-5) and an optional note", a.out)
		if err != nil {
			return err
		}
		args = strings.Fields(s)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: mood", ErrMissingArgument)
	}

	mood, err := strconv.Atoi(args[0])
	if err != nil {
		return models.ErrMoodOutOfRange
	}
	entry, err := models.NewMoodEntry(mood, strings.Join(args[1:], " "), a.clock())
	if err != nil {
		return err
	}

	if err := a.journal.SaveEncryptedRecord(ctx, entry, models.CategoryMood); err != nil {
		a.logger.Error(ctx, "error saving mood entry", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Mood saved")
	return nil
}

func (a *App) Chat(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		s, err := GetMultiline(a.reader, "Message", a.out)
		if err != nil {
			return err
		}
		text = s
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	msg := models.ChatMessage{Type: "chat_message", Sender: "user", Text: text, Timestamp: a.clock()}
	if err := a.journal.SaveEncryptedRecord(ctx, msg, models.CategoryChat); err != nil {
		a.logger.Error(ctx, "error saving chat message", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Message saved")
	return nil
}

func (a *App) Health(ctx context.Context, args []string) error {
	if len(args) == 0 {
		lines, err := GetMetrics(a.reader, a.out)
		if err != nil {
			return err
		}
		args = lines
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: metrics", ErrMissingArgument)
	}

	metrics, err := models.MetricsFromStrings(args)
	if err != nil {
		return err
	}

	rec := models.HealthRecord{Type: "health_record", Metrics: metrics, Timestamp: a.clock()}
	if err := a.journal.SaveEncryptedRecord(ctx, rec, models.CategoryHealth); err != nil {
		a.logger.Error(ctx, "error saving health record", "error", err)
		return err
	}
	fmt.Fprintf(a.out, "Health record saved (%d metrics)\n", len(metrics))
	return nil
}

// Advice handles "advice list" and "advice add [doctorId category text]".
// Missing add arguments are prompted for.
func (a *App) Advice(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list", "l":
		advices := a.journal.GetDoctorAdvices(ctx)
		if len(advices) == 0 {
			fmt.Fprintln(a.out, "No advice yet")
			return nil
		}
		for _, adv := range advices {
			fmt.Fprintf(a.out, "%s  [%s] %s: %s\n", adv.Timestamp, adv.Category, adv.DoctorID, adv.Advice)
		}
		return nil

	case "add":
		fields := []string{"Doctor ID", "Category"}
		vals := make([]string, 0, 3)
		for i, prompt := range fields {
			if i < len(args) {
				vals = append(vals, args[i])
				continue
			}
			s, err := GetSimpleText(a.reader, prompt, a.out)
			if err != nil {
				return err
			}
			vals = append(vals, s)
		}
		text := ""
		if len(args) > len(fields) {
			text = strings.Join(args[len(fields):], " ")
		} else {
			s, err := GetMultiline(a.reader, "Advice", a.out)
			if err != nil {
				return err
			}
			text = s
		}
		if vals[0] == "" {
			return fmt.Errorf("%w: doctor id", ErrMissingArgument)
		}
		if text == "" {
			return ErrEmptyText
		}

		if err := a.journal.AddDoctorAdvice(ctx, vals[0], text, vals[1]); err != nil {
			a.logger.Error(ctx, "error adding advice", "error", err)
			return err
		}
		fmt.Fprintln(a.out, "Advice added")
		return nil
	}

	return fmt.Errorf("unknown advice command %q", sub)
}

func (a *App) Pref(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: preference", ErrMissingArgument)
	}
	pref, err := models.ParseSyncPreference(args[0])
	if err != nil {
		return err
	}
	if err := a.journal.SetSyncPreference(ctx, pref); err != nil {
		a.logger.Error(ctx, "error setting sync preference", "error", err)
		return err
	}
	fmt.Fprintf(a.out, "Sync preference set to %s\n", pref)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	if a.journal.TriggerManualSync(ctx) {
		fmt.Fprintln(a.out, "Sync complete")
	} else {
		fmt.Fprintln(a.out, "Sync failed, data stays local")
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.journal.GetSyncStatus(ctx)

	last := "never"
	if st.LastSyncAt != nil {
		last = st.LastSyncAt.Format(time.RFC3339)
	}
	fmt.Fprintf(a.out, "online: %t\nlast sync: %s\npending: %d\nin progress: %t\n",
		st.IsOnline, last, st.PendingOperationsCount, st.SyncInProgress)
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: category", ErrMissingArgument)
	}
	c, err := models.ParseCategory(args[0])
	if err != nil {
		return err
	}

	entries, err := a.journal.ReadRecords(ctx, c)
	if err != nil {
		a.logger.Error(ctx, "error reading records", "category", c, "error", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %s\n", e.Timestamp.Format(time.RFC3339), describe(e.Payload))
	}
	return nil
}

func describe(p any) string {
	switch v := p.(type) {
	case *models.MoodEntry:
		if v.Note == "" {
			return fmt.Sprintf("mood %d", v.Mood)
		}
		return fmt.Sprintf("mood %d: %s", v.Mood, v.Note)
	case *models.ChatMessage:
		return fmt.Sprintf("%s: %s", v.Sender, v.Text)
	case *models.HealthRecord:
		parts := make([]string, len(v.Metrics))
		for i, m := range v.Metrics {
			parts[i] = fmt.Sprintf("%s=%s", m.Name, strconv.FormatFloat(m.Value, 'f', -1, 64))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (a *App) Stats(ctx context.Context) error {
	h := a.journal.Health(ctx)
	fmt.Fprintf(a.out, "status: %s\nused: %d of %d bytes\n", h.Status, h.Used, h.Total)
	if h.Error != "" {
		fmt.Fprintf(a.out, "error: %s\n", h.Error)
	}
	return nil
}
