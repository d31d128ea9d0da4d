package schema

import (
	"errors"

	"github.com/itpurple/stylist/internal/domain"
)

// Step ids shared by the built-in flows.
const (
	StepOccasion    domain.StepID = "occasion"
	StepCategory    domain.StepID = "category"
	StepStyle       domain.StepID = "style"
	StepBudget      domain.StepID = "budget"
	StepSize        domain.StepID = "size"
	StepColor       domain.StepID = "color"
	StepComposition domain.StepID = "composition"
	StepOriginal    domain.StepID = "original"
	StepSeason      domain.StepID = "season"
)

// Answer keys written by the built-in flows.
const (
	KeyOccasion    = "occasion"
	KeyCategoryID  = "category_id"
	KeyStyle       = "style_preferences"
	KeyBudget      = "budget"
	KeySize        = "size"
	KeyColor       = "color"
	KeyComposition = "composition"
	KeyOriginal    = "original"
	KeySeason      = "season"
)

// ErrNoCategoriesForOccasion rejects a typed occasion that matches nothing in
// the clothing menu.
var ErrNoCategoriesForOccasion = errors.New(
	"К сожалению, для введенной вами ситуации не найдено подходящих категорий. Пожалуйста, выберите другую ситуацию или категорию.")

var (
	occasions = []string{
		"Прогулка в городе", "Прогулка на природе", "Работа в офисе",
		"Свидание", "Театр", "Бассейн", "Спортзал", "Дом",
	}
	styles       = []string{"Классический", "Повседневный", "Элегантный", "Спортивный", "Пляжный", "Домашний"}
	colors       = []string{"Черный", "Белый", "Красный", "Синий", "Зеленый", "Желтый"}
	compositions = []string{"Хлопок", "Шерсть", "Шелк", "Лен", "Синтетика"}
	yesNo        = []string{"Да", "Нет"}
	seasons      = []string{"Демисезон", "Зима", "Круглогодичный", "Лето", "Сезон не задан"}
)

// StylistFlow is the full nine-step outfit dialog. Category options are
// narrowed by the chosen occasion, so a later "back" past the occasion step
// recomputes them instead of replaying the stale list.
func StylistFlow(catalog *CategoryCatalog) *Schema {
	steps := []Step{
		{
			ID:          StepOccasion,
			Key:         KeyOccasion,
			Prompt:      "Для какой ситуации вы подбираете образ?",
			Kind:        KindMenu,
			AllowCustom: true,
			Options:     staticOptions(occasions),
			Validate: func(_ domain.Answers, value string) error {
				if len(catalog.Filter(CategoryFilter{Situation: value})) == 0 {
					return ErrNoCategoriesForOccasion
				}
				return nil
			},
			Next: linearNext(StepCategory),
		},
		{
			ID:          StepCategory,
			Key:         KeyCategoryID,
			Prompt:      "Выберите категорию одежды:",
			Kind:        KindMenu,
			AllowCustom: true,
			Options: func(ans domain.Answers) []Option {
				cats := catalog.Filter(CategoryFilter{Situation: ans.String(KeyOccasion)})
				opts := make([]Option, len(cats))
				for i, c := range cats {
					opts[i] = Option{Label: c.Name, Value: c.ID}
				}
				return opts
			},
			Next: linearNext(StepStyle),
		},
		{
			ID:          StepStyle,
			Key:         KeyStyle,
			Prompt:      "Какие стили вы предпочитаете?",
			Kind:        KindMenu,
			AllowCustom: true,
			List:        true,
			Options:     staticOptions(styles),
			Next:        linearNext(StepBudget),
		},
		{
			ID:       StepBudget,
			Key:      KeyBudget,
			Prompt:   "Какой у вас бюджет на этот образ (в рублях)?",
			Kind:     KindNumber,
			Min:      1,
			BadInput: "Пожалуйста, введите бюджет числом.",
			Next:     linearNext(StepSize),
		},
		{
			ID:       StepSize,
			Key:      KeySize,
			Prompt:   "Какой у вас размер одежды? Введите число от 38 до 80",
			Kind:     KindNumber,
			Min:      38,
			Max:      80,
			BadInput: "Пожалуйста, введите размер числом от 38 до 80.",
			Next:     linearNext(StepColor),
		},
		{
			ID:          StepColor,
			Key:         KeyColor,
			Prompt:      "Какой цвет вы предпочитаете?",
			Kind:        KindMenu,
			AllowCustom: true,
			Options:     staticOptions(colors),
			Next:        linearNext(StepComposition),
		},
		{
			ID:          StepComposition,
			Key:         KeyComposition,
			Prompt:      "Какой состав ткани вы предпочитаете?",
			Kind:        KindMenu,
			AllowCustom: true,
			Options:     staticOptions(compositions),
			Next:        linearNext(StepOriginal),
		},
		{
			ID:      StepOriginal,
			Key:     KeyOriginal,
			Prompt:  "Нужен ли вам только оригинальный товар?",
			Kind:    KindMenu,
			Options: staticOptions(yesNo),
			Next:    linearNext(StepSeason),
		},
		{
			ID:      StepSeason,
			Key:     KeySeason,
			Prompt:  "Для какого сезона вы ищете одежду?",
			Kind:    KindMenu,
			Options: staticOptions(seasons),
			Next:    terminal(),
		},
	}
	s, err := New("stylist", StepOccasion, steps)
	if err != nil {
		panic(err)
	}
	return s
}

// QuickFlow is the short three-question variant: occasion, style, budget.
func QuickFlow() *Schema {
	steps := []Step{
		{
			ID:          StepOccasion,
			Key:         KeyOccasion,
			Prompt:      "Для какой ситуации вы подбираете образ?",
			Kind:        KindMenu,
			AllowCustom: true,
			Options:     staticOptions([]string{"Прогулка", "Работа", "Свидание"}),
			Next:        linearNext(StepStyle),
		},
		{
			ID:          StepStyle,
			Key:         KeyStyle,
			Prompt:      "Какие стили вы предпочитаете?",
			Kind:        KindMenu,
			AllowCustom: true,
			List:        true,
			Options:     staticOptions(styles),
			Next:        linearNext(StepBudget),
		},
		{
			ID:       StepBudget,
			Key:      KeyBudget,
			Prompt:   "Какой у вас бюджет на этот образ (в рублях)?",
			Kind:     KindNumber,
			Min:      1,
			BadInput: "Пожалуйста, введите бюджет числом.",
			Next:     terminal(),
		},
	}
	s, err := New("quick", StepOccasion, steps)
	if err != nil {
		panic(err)
	}
	return s
}
