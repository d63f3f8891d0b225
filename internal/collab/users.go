package collab

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/nfrund/chatrelay/internal/domain"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// HTTPUserDirectory resolves users through the user service's
// GET /users/byIds endpoint.
type HTTPUserDirectory struct {
	endpoint
	// Identical lookups in flight at the same time share one request; a burst
	// of joins to one room otherwise asks for the same member list repeatedly.
	group singleflight.Group
}

var _ UserDirectory = (*HTTPUserDirectory)(nil)

// NewUserDirectory returns a client for the user service at baseURL.
func NewUserDirectory(baseURL string, opts ...Option) *HTTPUserDirectory {
	return &HTTPUserDirectory{endpoint: newEndpoint(baseURL, opts)}
}

type userDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (d *HTTPUserDirectory) Users(ctx context.Context, ids []int64) ([]domain.User, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	slices.Sort(ids)

	key := strings.Join(lo.Map(ids, func(id int64, _ int) string {
		return strconv.FormatInt(id, 10)
	}), ",")

	v, err, _ := d.group.Do(key, func() (any, error) {
		var dtos []userDTO
		if err := d.getJSON(ctx, "/users/byIds", url.Values{"ids": {key}}, &dtos); err != nil {
			return nil, err
		}
		return dtos, nil
	})
	if err != nil {
		return nil, err
	}

	wanted := lo.SliceToMap(ids, func(id int64) (int64, struct{}) { return id, struct{}{} })
	users := lo.FilterMap(v.([]userDTO), func(dto userDTO, _ int) (domain.User, bool) {
		_, ok := wanted[dto.ID]
		return domain.User{ID: dto.ID, Username: dto.Username}, ok
	})
	users = lo.UniqBy(users, func(u domain.User) int64 { return u.ID })
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return users, nil
}

// LocalUserDirectory resolves every id to a user named after the id. It
// stands in for the user service when none is configured.
type LocalUserDirectory struct{}

var _ UserDirectory = LocalUserDirectory{}

func (LocalUserDirectory) Users(_ context.Context, ids []int64) ([]domain.User, error) {
	ids = lo.Uniq(ids)
	slices.Sort(ids)
	return lo.Map(ids, func(id int64, _ int) domain.User {
		return domain.User{ID: id, Username: strconv.FormatInt(id, 10)}
	}), nil
}
