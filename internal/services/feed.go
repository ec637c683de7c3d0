package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"hangspot/internal/models"
	"hangspot/internal/repositories"
	"hangspot/internal/utils"
)

// PerPage is the fixed feed page size.
const PerPage = 5

// Page describes one slice of a feed.
type Page struct {
	Number     int
	PerPage    int
	Total      int64
	TotalPages int
}

func NewPage(number int, total int64) Page {
	return Page{
		Number:     number,
		PerPage:    PerPage,
		Total:      total,
		TotalPages: int((total + PerPage - 1) / PerPage),
	}
}

// Window returns the half-open range [start, end) of the page within the full
// list. Page numbers below 1 or past the end give an empty range.
func (p Page) Window() (int, int) {
	// 先判断范围再相乘，超大页码不会溢出
	if p.Number < 1 || p.Number > p.TotalPages {
		return 0, 0
	}
	start := int64(p.Number-1) * int64(p.PerPage)
	end := start + int64(p.PerPage)
	if end > p.Total {
		end = p.Total
	}
	if start >= end {
		return 0, 0
	}
	return int(start), int(end)
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }

type FeedPage struct {
	Page
	Items []models.FeedItem
}

// FeedService 聚合 Wifi / Hangout 分享，带作者名和点赞数，并做分页与缓存
type FeedService struct {
	updates repositories.UpdateRepository
	likes   repositories.LikeRepository
	cache   *utils.Cache
	ttl     time.Duration

	// gen 每次 Invalidate 加一；写入前开始加载的页面不再放进缓存
	mu  sync.Mutex
	gen uint64
}

func NewFeedService(updates repositories.UpdateRepository, likes repositories.LikeRepository, cache *utils.Cache, ttl time.Duration) *FeedService {
	return &FeedService{
		updates: updates,
		likes:   likes,
		cache:   cache,
		ttl:     ttl,
	}
}

func cacheKey(kinds []models.UpdateKind, number int) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("feed:%s:page:%d", strings.Join(names, "+"), number)
}

// Page returns page number of the feed made of kinds, in the given order.
// viewerID > 0 marks the items that viewer has liked.
func (s *FeedService) Page(ctx context.Context, kinds []models.UpdateKind, number int, viewerID uint) (*FeedPage, error) {
	key := cacheKey(kinds, number)

	page, ok := s.cache.Get(key).(*FeedPage)
	if !ok {
		gen := s.generation()

		var err error
		page, err = s.load(ctx, kinds, number)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen == gen {
			s.cache.Set(key, page, s.ttl)
		}
		s.mu.Unlock()
	}

	// 缓存中的数据是共享的，标记点赞前先复制
	out := &FeedPage{Page: page.Page, Items: append([]models.FeedItem{}, page.Items...)}
	if viewerID > 0 {
		if err := s.markLiked(ctx, viewerID, out.Items); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *FeedService) load(ctx context.Context, kinds []models.UpdateKind, number int) (*FeedPage, error) {
	counts := make([]int64, len(kinds))
	var total int64
	for i, kind := range kinds {
		n, err := s.updates.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("count %s updates: %w", kind, err)
		}
		counts[i] = n
		total += n
	}

	page := NewPage(number, total)
	start, end := page.Window()

	// 把合并列表上的区间拆到各张表的 OFFSET/LIMIT
	items := []models.FeedItem{}
	offset, remaining := start, end-start
	for i, kind := range kinds {
		n := int(counts[i])
		if offset >= n {
			offset -= n
			continue
		}
		if remaining <= 0 {
			break
		}

		take := n - offset
		if take > remaining {
			take = remaining
		}
		rows, err := s.updates.List(ctx, kind, offset, take)
		if err != nil {
			return nil, fmt.Errorf("list %s updates: %w", kind, err)
		}
		items = append(items, rows...)
		remaining -= take
		offset = 0
	}

	return &FeedPage{Page: page, Items: items}, nil
}

// ByUser lists every update the user posted, Wifi first, with like counts.
func (s *FeedService) ByUser(ctx context.Context, userID uint) ([]models.FeedItem, error) {
	items := []models.FeedItem{}
	for _, kind := range models.AllKinds {
		rows, err := s.updates.ListByUser(ctx, kind, userID)
		if err != nil {
			return nil, fmt.Errorf("list %s updates of user %d: %w", kind, userID, err)
		}
		items = append(items, rows...)
	}

	if err := s.markLiked(ctx, userID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *FeedService) markLiked(ctx context.Context, viewerID uint, items []models.FeedItem) error {
	ids := make(map[models.UpdateKind][]uint)
	for _, item := range items {
		ids[item.Kind] = append(ids[item.Kind], item.ID)
	}

	for kind, list := range ids {
		liked, err := s.likes.LikedIDs(ctx, viewerID, kind, list)
		if err != nil {
			return fmt.Errorf("load likes: %w", err)
		}
		for i := range items {
			if items[i].Kind == kind {
				items[i].Liked = liked[items[i].ID]
			}
		}
	}
	return nil
}

func (s *FeedService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Invalidate drops every cached page. Called after any write.
func (s *FeedService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Purge()
}
