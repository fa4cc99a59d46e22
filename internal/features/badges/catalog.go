// catalog.go: статический каталог из восьми бейджей и их пороги.
package badges

import "encoding/json"

// Пороги условий. Значения зашиты в код: каждая проверка своя.
const (
	ExplorerMinCountries = 5

	ConnectorMinConnections = 10

	HostMasterMinEvents = 5
	HostMasterMinRating = 4.0

	TrustedMemberMinScore = 80.0

	CommunityBuilderMinMembers    = 10
	CommunityBuilderModeratorDays = 30

	ServiceStarMinReviews = 20
	ServiceStarMinRating  = 4.5

	EarlyAdopterMaxRank = 1000

	GlobalCitizenMinContinents = 5
)

// Catalog возвращает определения всех бейджей для посева в БД.
func Catalog() []*Badge {
	return []*Badge{
		{
			Type:           TypeExplorer,
			Name:           "Explorer",
			Description:    "Visited 5 or more countries",
			Criteria:       "Log trips to at least 5 different countries",
			Category:       "travel",
			Tier:           "silver",
			Points:         50,
			CriteriaConfig: criteriaJSON(map[string]any{"min_countries": ExplorerMinCountries}),
		},
		{
			Type:           TypeConnector,
			Name:           "Connector",
			Description:    "Made 10 or more connections",
			Criteria:       "Have at least 10 accepted connections",
			Category:       "social",
			Tier:           "bronze",
			Points:         30,
			CriteriaConfig: criteriaJSON(map[string]any{"min_connections": ConnectorMinConnections}),
		},
		{
			Type:        TypeHostMaster,
			Name:        "Host Master",
			Description: "Hosted 5+ events with a 4.0+ average rating",
			Criteria:    "Complete at least 5 hosted events rated 4.0 or higher on average",
			Category:    "events",
			Tier:        "gold",
			Points:      100,
			CriteriaConfig: criteriaJSON(map[string]any{
				"min_events": HostMasterMinEvents,
				"min_rating": HostMasterMinRating,
			}),
		},
		{
			Type:           TypeTrustedMember,
			Name:           "Trusted Member",
			Description:    "Reached a trust score of 80",
			Criteria:       "Trust score of 80 or higher",
			Category:       "trust",
			Tier:           "gold",
			Points:         75,
			CriteriaConfig: criteriaJSON(map[string]any{"min_trust_score": TrustedMemberMinScore}),
		},
		{
			Type:        TypeCommunityBuilder,
			Name:        "Community Builder",
			Description: "Built or moderated a thriving community",
			Criteria:    "Create a community with 10+ members, or moderate one for 30+ days",
			Category:    "community",
			Tier:        "gold",
			Points:      100,
			CriteriaConfig: criteriaJSON(map[string]any{
				"min_members":    CommunityBuilderMinMembers,
				"moderator_days": CommunityBuilderModeratorDays,
			}),
		},
		{
			Type:        TypeServiceStar,
			Name:        "Service Star",
			Description: "Consistently excellent reviews",
			Criteria:    "20+ reviews across marketplace, connections and trust moments averaging 4.5+",
			Category:    "reputation",
			Tier:        "platinum",
			Points:      150,
			CriteriaConfig: criteriaJSON(map[string]any{
				"min_reviews": ServiceStarMinReviews,
				"min_rating":  ServiceStarMinRating,
			}),
		},
		{
			Type:           TypeEarlyAdopter,
			Name:           "Early Adopter",
			Description:    "One of the first 1,000 members",
			Criteria:       "Joined among the first 1,000 users",
			Category:       "special",
			Tier:           "special",
			Points:         50,
			CriteriaConfig: criteriaJSON(map[string]any{"max_rank": EarlyAdopterMaxRank}),
		},
		{
			Type:           TypeGlobalCitizen,
			Name:           "Global Citizen",
			Description:    "Connected with people on 5 continents",
			Criteria:       "Have connections living on at least 5 different continents",
			Category:       "social",
			Tier:           "platinum",
			Points:         150,
			CriteriaConfig: criteriaJSON(map[string]any{"min_continents": GlobalCitizenMinContinents}),
		},
	}
}

func criteriaJSON(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
