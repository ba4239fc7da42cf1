package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/domain/watering"
	"github.com/mamadbah2/plantcare/internal/service/plants"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const dateFormat = "2006-01-02"

// PlantService is the plant collection as seen from chat.
type PlantService interface {
	List(ctx context.Context, force bool) []models.Plant
	Due(ctx context.Context) []models.Plant
	Water(ctx context.Context, id int64) (models.Plant, error)
	Today() time.Time
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	Build(ctx context.Context, mode models.ReportMode, windowDays int) (models.DiligenceReport, error)
	Summary(report models.DiligenceReport) string
}

// Dispatcher executes parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (models.AutomationReply, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	plants    PlantService
	reporting ReportingAdapter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(plantSvc PlantService, reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		plants:    plantSvc,
		reporting: reporting,
		logger:    logger,
	}
}

// HelpReply lists the supported commands.
var HelpReply = models.AutomationReply{
	Title: "Plant care commands",
	Message: strings.Join([]string{
		"/plants - list your plants",
		"/due - plants to water today",
		"/water <id or name> - record a watering",
		"/report - watering diligence over the last 30 days",
		"/help - this message",
	}, "\n"),
}

// HandleCommand runs the command and returns the reply to send back.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (models.AutomationReply, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	switch cmd.Type {
	case models.CommandHelp:
		return HelpReply, nil
	case models.CommandPlants:
		return s.listPlants(ctx), nil
	case models.CommandDue:
		return s.duePlants(ctx), nil
	case models.CommandWater:
		return s.water(ctx, cmd)
	case models.CommandReport:
		return s.report(ctx, cmd)
	default:
		return models.AutomationReply{}, ErrUnsupportedCommand
	}
}

func (s *Service) listPlants(ctx context.Context) models.AutomationReply {
	list := s.plants.List(ctx, false)
	if len(list) == 0 {
		return models.AutomationReply{Title: "Your plants", Message: "No plants registered yet."}
	}

	lines := make([]string, 0, len(list))
	for _, p := range list {
		next := "water now"
		if due := watering.DueDate(p); due != nil {
			next = "next " + due.Format(dateFormat)
		}
		star := ""
		if p.Favorite {
			star = " ★"
		}
		lines = append(lines, fmt.Sprintf("#%d %s%s: %s (score %d)", p.ID, p.DisplayName(), star, next, p.Score))
	}
	return models.AutomationReply{Title: "Your plants", Message: strings.Join(lines, "\n")}
}

func (s *Service) duePlants(ctx context.Context) models.AutomationReply {
	due := s.plants.Due(ctx)
	if len(due) == 0 {
		return models.AutomationReply{Title: "Due today", Message: "Nothing to water today."}
	}

	today := s.plants.Today()
	lines := make([]string, 0, len(due))
	for _, p := range due {
		status := "never watered"
		if d := watering.DueDate(p); d != nil {
			if late := watering.DaysBetween(*d, today); late > 0 {
				status = fmt.Sprintf("%d days overdue", late)
			} else {
				status = "due today"
			}
		}
		lines = append(lines, fmt.Sprintf("#%d %s (%s)", p.ID, p.DisplayName(), status))
	}
	return models.AutomationReply{Title: "Due today", Message: strings.Join(lines, "\n")}
}

func (s *Service) water(ctx context.Context, cmd models.Command) (models.AutomationReply, error) {
	if len(cmd.Args) == 0 {
		return models.AutomationReply{}, ErrInvalidArguments
	}

	id, err := s.resolvePlant(ctx, strings.Join(cmd.Args, " "))
	if err != nil {
		return models.AutomationReply{}, err
	}

	plant, err := s.plants.Water(ctx, id)
	if errors.Is(err, plants.ErrNotFound) {
		return models.AutomationReply{Title: "Water", Message: fmt.Sprintf("No plant #%d.", id)}, nil
	}
	if err != nil {
		return models.AutomationReply{}, err
	}

	message := fmt.Sprintf("Watering saved for %s. Score %d, next watering %s.",
		plant.DisplayName(), plant.Score, plant.NextWatering.Format(dateFormat))
	return models.AutomationReply{Title: "Water", Message: message}, nil
}

func (s *Service) resolvePlant(ctx context.Context, arg string) (int64, error) {
	if id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64); err == nil {
		return id, nil
	}

	var match int64
	for _, p := range s.plants.List(ctx, false) {
		if strings.EqualFold(p.DisplayName(), arg) {
			if match != 0 {
				return 0, fmt.Errorf("%w: several plants are named %q", ErrInvalidArguments, arg)
			}
			match = p.ID
		}
	}
	if match == 0 {
		return 0, fmt.Errorf("%w: no plant named %q", ErrInvalidArguments, arg)
	}
	return match, nil
}

func (s *Service) report(ctx context.Context, cmd models.Command) (models.AutomationReply, error) {
	if s.reporting == nil {
		return models.AutomationReply{}, ErrUnsupportedCommand
	}

	window := watering.DefaultWindowDays
	if len(cmd.Args) > 0 {
		n, err := strconv.Atoi(cmd.Args[0])
		if err != nil || n <= 0 {
			return models.AutomationReply{}, ErrInvalidArguments
		}
		window = n
	}

	report, err := s.reporting.Build(ctx, models.ReportRecent, window)
	if err != nil {
		return models.AutomationReply{}, err
	}
	return models.AutomationReply{Title: "Report", Message: s.reporting.Summary(report)}, nil
}
