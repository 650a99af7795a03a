package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gena-go/internal/config"
	"gena-go/internal/entitlement"
	"gena-go/internal/model"
	"gena-go/internal/repository"
	"gena-go/pkg/es"
)

// AdminStats 汇总了管理端关心的全部统计数据。
type AdminStats struct {
	TotalUsers         int64                         `json:"totalUsers"`
	TotalMessages      int64                         `json:"totalMessages"`
	AvgMessagesPerUser float64                       `json:"avgMessagesPerUser"`
	PlanDistribution   map[string]int64              `json:"planDistribution"`
	PersonaCounts      map[string]int64              `json:"personaCounts"`
	DailyActivity      map[string]int64              `json:"dailyActivity"`
	TopUsers           []repository.UserMessageCount `json:"topUsers"`
}

// AdminService 提供管理端的统计与检索能力。
type AdminService interface {
	// IsAdmin 判断 Telegram 用户是否在管理员白名单中。
	IsAdmin(userID int64) bool
	// Stats 汇总 SQL 聚合统计。
	Stats(ctx context.Context) (*AdminStats, error)
	// Report 生成面向聊天窗口的文本报告。
	Report(ctx context.Context) (string, error)
	// SearchHistory 在 ES 索引上做全文检索。
	SearchHistory(ctx context.Context, query string, userID *int64, size int) ([]model.ChatTurnDocument, error)
	// RealtimeActivity 读取 Kafka 消费端维护的实时活跃计数。
	RealtimeActivity(ctx context.Context, days int) (map[string]int64, error)
}

type adminService struct {
	userRepo     repository.UserRepository
	planRepo     repository.PlanRepository
	settingsRepo repository.SettingsRepository
	historyRepo  repository.HistoryRepository
	activityRepo repository.ActivityRepository
	now          func() time.Time
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	settingsRepo repository.SettingsRepository,
	historyRepo repository.HistoryRepository,
	activityRepo repository.ActivityRepository,
) AdminService {
	return &adminService{
		userRepo:     userRepo,
		planRepo:     planRepo,
		settingsRepo: settingsRepo,
		historyRepo:  historyRepo,
		activityRepo: activityRepo,
		now:          time.Now,
	}
}

// IsAdmin 对照配置中的白名单。
func (s *adminService) IsAdmin(userID int64) bool {
	for _, id := range config.Conf.Admin.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Stats 逐项聚合。任一查询失败整体返回错误。
func (s *adminService) Stats(ctx context.Context) (*AdminStats, error) {
	totalUsers, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}
	totalMessages, err := s.historyRepo.Count()
	if err != nil {
		return nil, err
	}
	planDist, err := s.planRepo.Distribution()
	if err != nil {
		return nil, err
	}
	personas, err := s.settingsRepo.PersonaCounts()
	if err != nil {
		return nil, err
	}
	activity, err := s.historyRepo.DailyCounts(s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	topUsers, err := s.historyRepo.TopUsers(5)
	if err != nil {
		return nil, err
	}

	var avg float64
	if totalUsers > 0 {
		avg = float64(totalMessages) / float64(totalUsers)
	}

	return &AdminStats{
		TotalUsers:         totalUsers,
		TotalMessages:      totalMessages,
		AvgMessagesPerUser: avg,
		PlanDistribution:   planDist,
		PersonaCounts:      personas,
		DailyActivity:      activity,
		TopUsers:           topUsers,
	}, nil
}

// Report 将统计渲染为树状文本，供 /admin 命令直接下发。
func (s *adminService) Report(ctx context.Context) (string, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("GENA BOT - ADMIN REPORT\n")
	b.WriteString(s.now().Format("2006-01-02 15:04"))
	b.WriteString("\n\n")

	b.WriteString("📊 USER STATISTICS\n")
	fmt.Fprintf(&b, "├── Total Users: %d\n", stats.TotalUsers)
	b.WriteString("├── Plan Distribution:\n")
	tiers := []string{entitlement.TierFree, entitlement.TierBasic, entitlement.TierPremium, entitlement.TierVIP}
	for i, tier := range tiers {
		branch := "├──"
		if i == len(tiers)-1 {
			branch = "└──"
		}
		fmt.Fprintf(&b, "│   %s %s: %d\n", branch, tier, stats.PlanDistribution[tier])
	}
	fmt.Fprintf(&b, "├── Total Messages: %d\n", stats.TotalMessages)
	fmt.Fprintf(&b, "└── Avg Messages/User: %.2f\n", stats.AvgMessagesPerUser)

	b.WriteString("\n👤 TOP PERSONAS\n")
	type personaCount struct {
		persona string
		count   int64
	}
	sorted := make([]personaCount, 0, len(stats.PersonaCounts))
	for p, c := range stats.PersonaCounts {
		sorted = append(sorted, personaCount{p, c})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].persona < sorted[j].persona
	})
	for i, pc := range sorted {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "├── %d. %s: %d users\n", i+1, pc.persona, pc.count)
	}

	b.WriteString("\n📈 7-DAY ACTIVITY\n")
	days := make([]string, 0, len(stats.DailyActivity))
	for day := range stats.DailyActivity {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		count := stats.DailyActivity[day]
		barLen := int(count / 10)
		if barLen > 50 {
			barLen = 50
		}
		fmt.Fprintf(&b, "├── %s: %s (%d msgs)\n", day, strings.Repeat("█", barLen), count)
	}

	b.WriteString("\n🏆 TOP 5 USERS\n")
	for i, u := range stats.TopUsers {
		fmt.Fprintf(&b, "├── %d. User %d: %d messages\n", i+1, u.UserID, u.Messages)
	}

	return b.String(), nil
}

// SearchHistory 透传给 ES 客户端。
func (s *adminService) SearchHistory(ctx context.Context, query string, userID *int64, size int) ([]model.ChatTurnDocument, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	return es.SearchHistory(ctx, config.Conf.Elasticsearch.IndexName, query, userID, size)
}

// RealtimeActivity 读取 Redis 中的逐日计数。
func (s *adminService) RealtimeActivity(ctx context.Context, days int) (map[string]int64, error) {
	if days <= 0 || days > 35 {
		days = 7
	}
	return s.activityRepo.RangeDaily(ctx, s.now(), days)
}
