// Package seed builds demo relationship graphs for development databases.
// Every edge goes through the relationship engines, so seeded data obeys the
// same rules as live traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"socialgraph/internal/cache"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
	"socialgraph/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Services are the engines the seeder drives.
type Services struct {
	Requests *service.FriendRequestService
	Friends  *service.FriendService
	Follows  *service.FollowService
}

// NewServices wires the engines over db. store may be nil.
func NewServices(db *gorm.DB, store *cache.Store, opts ...service.Option) Services {
	friendRepo := repository.NewFriendRepository(db)
	friends := service.NewFriendService(friendRepo, store, 0)
	return Services{
		Requests: service.NewFriendRequestService(friendRepo, friends, opts...),
		Friends:  friends,
		Follows:  service.NewFollowService(repository.NewFollowRepository(db), opts...),
	}
}

// Options configuration for the seeder
type Options struct {
	Users           int
	FollowsPerUser  int
	RequestsPerUser int
	AcceptRatio     float64
	RejectRatio     float64
	ViewRatio       float64
	// RandSeed makes runs reproducible. Zero picks a time-based seed.
	RandSeed int64
}

// Summary counts what a run created.
type Summary struct {
	Follows  int `json:"follows"`
	Requests int `json:"requests"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Viewed   int `json:"viewed"`
}

func (o Options) withDefaults() Options {
	if o.Users <= 0 {
		o.Users = 50
	}
	if o.FollowsPerUser <= 0 {
		o.FollowsPerUser = 5
	}
	if o.RequestsPerUser <= 0 {
		o.RequestsPerUser = 3
	}
	if o.AcceptRatio == 0 && o.RejectRatio == 0 {
		o.AcceptRatio, o.RejectRatio = 0.5, 0.2
	}
	if o.ViewRatio == 0 {
		o.ViewRatio = 0.5
	}
	if o.RandSeed == 0 {
		o.RandSeed = time.Now().UnixNano()
	}
	return o
}

// skippable reports conflicts a random mesh runs into by design.
func skippable(err error) bool {
	return errors.Is(err, models.ErrDuplicateFollow) ||
		errors.Is(err, models.ErrDuplicateRequest) ||
		errors.Is(err, models.ErrAlreadyFriends)
}

// SocialMesh creates follows and friend requests between users 1..Users.
// Each request is then accepted, rejected or left pending, and some pending
// requests are marked viewed.
func SocialMesh(ctx context.Context, svc Services, opts Options) (Summary, error) {
	opts = opts.withDefaults()
	r := rand.New(rand.NewSource(opts.RandSeed))
	faker := gofakeit.New(opts.RandSeed)

	var sum Summary
	if opts.Users < 2 {
		return sum, nil
	}

	for u := 1; u <= opts.Users; u++ {
		user := uint(u)

		for _, target := range pickOthers(r, user, opts.Users, opts.FollowsPerUser) {
			if _, err := svc.Follows.AddFollower(ctx, user, target); err != nil {
				if skippable(err) {
					continue
				}
				return sum, fmt.Errorf("follow %d -> %d: %w", user, target, err)
			}
			sum.Follows++
		}

		for _, target := range pickOthers(r, user, opts.Users, opts.RequestsPerUser) {
			req, err := svc.Requests.AddFriend(ctx, user, target, faker.Sentence(8))
			if err != nil {
				if skippable(err) {
					continue
				}
				return sum, fmt.Errorf("request %d -> %d: %w", user, target, err)
			}
			sum.Requests++

			if err := settle(ctx, svc, r, opts, req.ID, &sum); err != nil {
				return sum, fmt.Errorf("settle request %d: %w", req.ID, err)
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "Seeded social mesh",
		slog.Int("users", opts.Users),
		slog.Int("follows", sum.Follows),
		slog.Int("requests", sum.Requests),
		slog.Int("accepted", sum.Accepted),
		slog.Int("rejected", sum.Rejected),
		slog.Int("viewed", sum.Viewed),
	)
	return sum, nil
}

func settle(ctx context.Context, svc Services, r *rand.Rand, opts Options, requestID uint, sum *Summary) error {
	roll := r.Float64()
	switch {
	case roll < opts.AcceptRatio:
		if _, err := svc.Requests.Accept(ctx, requestID); err != nil {
			if skippable(err) {
				return nil
			}
			return err
		}
		sum.Accepted++
	case roll < opts.AcceptRatio+opts.RejectRatio:
		if _, err := svc.Requests.Reject(ctx, requestID); err != nil {
			return err
		}
		sum.Rejected++
	default:
		if r.Float64() >= opts.ViewRatio {
			return nil
		}
		if _, err := svc.Requests.MarkViewed(ctx, requestID); err != nil {
			return err
		}
		sum.Viewed++
	}
	return nil
}

// pickOthers returns up to n distinct IDs from 1..users, excluding self.
func pickOthers(r *rand.Rand, self uint, users, n int) []uint {
	out := make([]uint, 0, n)
	for _, i := range r.Perm(users) {
		id := uint(i + 1)
		if id == self {
			continue
		}
		out = append(out, id)
		if len(out) == n {
			break
		}
	}
	return out
}
