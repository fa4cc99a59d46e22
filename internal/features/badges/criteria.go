// criteria.go: проверка условий каждого бейджа.
// У каждого бейджа свой агрегат, выбор проверки через switch по типу.
package badges

import (
	"context"
	"fmt"
	"time"

	"bersemuka.app/rewards/internal/common"
)

// CriteriaStore: агрегатные запросы, которые читают проверки.
type CriteriaStore interface {
	CountVisitedCountries(ctx context.Context, userID string) (int, error)
	CountAcceptedConnections(ctx context.Context, userID string) (int, error)
	GetHostedEventStats(ctx context.Context, userID string) (*HostedEventStats, error)
	GetTrustScore(ctx context.Context, userID string) (float64, error)
	MaxOwnedCommunitySize(ctx context.Context, userID string) (int, error)
	HasModeratorRoleSince(ctx context.Context, userID string, since time.Time) (bool, error)
	GetServiceRatingStats(ctx context.Context, userID string) (*RatingStats, error)
	CountUsersCreatedBefore(ctx context.Context, userID string) (int64, error)
	ListConnectionCountries(ctx context.Context, userID string) ([]string, error)
}

// meetsCriteria выбирает проверку по типу бейджа.
func (s *Service) meetsCriteria(ctx context.Context, userID string, badgeType BadgeType) (bool, error) {
	switch badgeType {
	case TypeExplorer:
		return s.checkExplorer(ctx, userID)
	case TypeConnector:
		return s.checkConnector(ctx, userID)
	case TypeHostMaster:
		return s.checkHostMaster(ctx, userID)
	case TypeTrustedMember:
		return s.checkTrustedMember(ctx, userID)
	case TypeCommunityBuilder:
		return s.checkCommunityBuilder(ctx, userID)
	case TypeServiceStar:
		return s.checkServiceStar(ctx, userID)
	case TypeEarlyAdopter:
		return s.checkEarlyAdopter(ctx, userID)
	case TypeGlobalCitizen:
		return s.checkGlobalCitizen(ctx, userID)
	default:
		return false, fmt.Errorf("%w: %s", common.ErrUnknownBadgeType, badgeType)
	}
}

// Explorer: минимум 5 разных стран в журнале поездок.
func (s *Service) checkExplorer(ctx context.Context, userID string) (bool, error) {
	n, err := s.criteria.CountVisitedCountries(ctx, userID)
	if err != nil {
		return false, err
	}
	return n >= ExplorerMinCountries, nil
}

// Connector: 10+ принятых связей в любую сторону.
func (s *Service) checkConnector(ctx context.Context, userID string) (bool, error) {
	n, err := s.criteria.CountAcceptedConnections(ctx, userID)
	if err != nil {
		return false, err
	}
	return n >= ConnectorMinConnections, nil
}

// Host Master: 5+ завершённых мероприятий И средняя оценка 4.0+.
// Без единой оценки среднее не определено: бейдж не выдаётся.
func (s *Service) checkHostMaster(ctx context.Context, userID string) (bool, error) {
	stats, err := s.criteria.GetHostedEventStats(ctx, userID)
	if err != nil {
		return false, err
	}
	if stats.CompletedEvents < HostMasterMinEvents || stats.RatedMoments == 0 {
		return false, nil
	}
	return stats.AverageRating >= HostMasterMinRating, nil
}

// Trusted Member: рейтинг доверия 80+.
func (s *Service) checkTrustedMember(ctx context.Context, userID string) (bool, error) {
	score, err := s.criteria.GetTrustScore(ctx, userID)
	if err != nil {
		return false, err
	}
	return score >= TrustedMemberMinScore, nil
}

// Community Builder: создал сообщество на 10+ участников
// ЛИБО модерирует (MODERATOR/ADMIN) 30+ дней.
func (s *Service) checkCommunityBuilder(ctx context.Context, userID string) (bool, error) {
	size, err := s.criteria.MaxOwnedCommunitySize(ctx, userID)
	if err != nil {
		return false, err
	}
	if size >= CommunityBuilderMinMembers {
		return true, nil
	}

	since := s.now().AddDate(0, 0, -CommunityBuilderModeratorDays)
	return s.criteria.HasModeratorRoleSince(ctx, userID, since)
}

// Service Star: 20+ оценок по трём источникам вместе, среднее 4.5+.
func (s *Service) checkServiceStar(ctx context.Context, userID string) (bool, error) {
	stats, err := s.criteria.GetServiceRatingStats(ctx, userID)
	if err != nil {
		return false, err
	}
	if stats.Count < ServiceStarMinReviews {
		return false, nil
	}
	return stats.AverageRating >= ServiceStarMinRating, nil
}

// Early Adopter: раньше пользователя зарегистрировались меньше 1000 человек.
func (s *Service) checkEarlyAdopter(ctx context.Context, userID string) (bool, error) {
	rank, err := s.criteria.CountUsersCreatedBefore(ctx, userID)
	if err != nil {
		return false, err
	}
	return rank < EarlyAdopterMaxRank, nil
}

// Global Citizen: страны проживания принятых связей покрывают 5+ континентов.
func (s *Service) checkGlobalCitizen(ctx context.Context, userID string) (bool, error) {
	countries, err := s.criteria.ListConnectionCountries(ctx, userID)
	if err != nil {
		return false, err
	}
	return DistinctContinents(countries) >= GlobalCitizenMinContinents, nil
}
