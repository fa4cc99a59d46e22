// policy.go: чистые функции расчёта сроков сгорания
// и дат предупреждений. Без обращений к БД.
package points

import (
	"strings"
	"time"

	"bersemuka.app/rewards/internal/common"
	"bersemuka.app/rewards/internal/config"
	"bersemuka.app/rewards/internal/features/members"
)

// NeverExpire в таблице переопределений означает «не сгорает».
// Такое начисление получает срок через 100 лет, а не nil:
// дальше по коду все сравнения дат работают без особых случаев.
const NeverExpire = -1

const neverExpireYears = 100

// ExpiryPolicy: правила сгорания очков.
type ExpiryPolicy struct {
	StandardMonths      int                        // Для неизвестных уровней доверия
	TrustLevelMonths    map[members.TrustLevel]int // Срок по уровню доверия
	ActionOverrides     map[string]int             // Срок по действию (в месяцах или NeverExpire)
	MinBalanceExemption int64                      // Баланс ниже: очки не сгорают
	WarningDays         []int                      // За сколько дней предупреждать (30, 7, 1)
}

// DefaultExpiryPolicy: 12/12/18 месяцев, порог 100, предупреждения 30/7/1.
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		StandardMonths: 12,
		TrustLevelMonths: map[members.TrustLevel]int{
			members.TrustLevelStarter: 12,
			members.TrustLevelTrusted: 12,
			members.TrustLevelLeader:  18,
		},
		ActionOverrides:     defaultActionOverrides(),
		MinBalanceExemption: 100,
		WarningDays:         []int{30, 7, 1},
	}
}

// PolicyFromConfig собирает политику из конфигурации.
func PolicyFromConfig(cfg *config.Config) ExpiryPolicy {
	return ExpiryPolicy{
		StandardMonths: cfg.PointsStandardExpiryMonths,
		TrustLevelMonths: map[members.TrustLevel]int{
			members.TrustLevelStarter: cfg.PointsExpiryMonthsStarter,
			members.TrustLevelTrusted: cfg.PointsExpiryMonthsTrusted,
			members.TrustLevelLeader:  cfg.PointsExpiryMonthsLeader,
		},
		ActionOverrides:     defaultActionOverrides(),
		MinBalanceExemption: cfg.PointsMinBalanceExemption,
		WarningDays:         append([]int(nil), cfg.PointsWarningDays...),
	}
}

func defaultActionOverrides() map[string]int {
	return map[string]int{
		ActionAdminAdjustment: NeverExpire,
		ActionReferralBonus:   6,
	}
}

// ExpiryMonthsForTrustLevel возвращает срок жизни очков в месяцах.
// Регистр не важен; неизвестный уровень получает стандартный срок.
func (p ExpiryPolicy) ExpiryMonthsForTrustLevel(trustLevel string) int {
	if months, ok := p.TrustLevelMonths[members.ParseTrustLevel(trustLevel)]; ok {
		return months
	}
	return p.StandardMonths
}

// CalculateExpiryDate возвращает дату сгорания начисления.
// action может быть пустым; переопределение по действию важнее уровня доверия.
func (p ExpiryPolicy) CalculateExpiryDate(awardedAt time.Time, trustLevel, action string) time.Time {
	months := p.ExpiryMonthsForTrustLevel(trustLevel)
	if action != "" {
		if override, ok := p.ActionOverrides[strings.ToUpper(action)]; ok {
			if override == NeverExpire {
				return awardedAt.AddDate(neverExpireYears, 0, 0)
			}
			months = override
		}
	}
	return common.AddMonths(awardedAt, months)
}

// IsExemptFromExpiry: доступный баланс строго меньше порога, не сжигаем.
// Ровно 100 уже не защищено.
func (p ExpiryPolicy) IsExemptFromExpiry(availablePoints int64) bool {
	return availablePoints < p.MinBalanceExemption
}

// WarningDates: даты трёх предупреждений перед сгоранием.
type WarningDates struct {
	First  time.Time // за 30 дней
	Second time.Time // за 7 дней
	Final  time.Time // за 1 день
}

// WarningDates считает даты предупреждений для expiryDate.
// Ожидается ровно три значения WarningDays по убыванию (проверяется в config.Validate).
func (p ExpiryPolicy) WarningDates(expiryDate time.Time) WarningDates {
	days := p.WarningDays
	if len(days) != 3 {
		days = []int{30, 7, 1}
	}
	return WarningDates{
		First:  expiryDate.AddDate(0, 0, -days[0]),
		Second: expiryDate.AddDate(0, 0, -days[1]),
		Final:  expiryDate.AddDate(0, 0, -days[2]),
	}
}
