package model

// Category 依年齡區分的計價級距
type Category string

const (
	CategoryInfant Category = "infant"
	CategoryChild  Category = "child"
	CategoryAdult  Category = "adult"
)

const (
	// 未滿 InfantAgeLimit 歲為 infant
	InfantAgeLimit = 2
	// 未滿 ChildAgeLimit 歲為 child，其餘為 adult
	ChildAgeLimit = 12
)

// CategoryForAge 回傳年齡對應的級距
func CategoryForAge(age int) Category {
	switch {
	case age < InfantAgeLimit:
		return CategoryInfant
	case age < ChildAgeLimit:
		return CategoryChild
	default:
		return CategoryAdult
	}
}

// Participant 參加者，只存在於計價與草稿中
type Participant struct {
	Age int `json:"age"`
}

func (p Participant) Category() Category {
	return CategoryForAge(p.Age)
}

func ParticipantsFromAges(ages []int) []Participant {
	participants := make([]Participant, len(ages))
	for i, age := range ages {
		participants[i] = Participant{Age: age}
	}
	return participants
}

func Ages(participants []Participant) []int {
	ages := make([]int, len(participants))
	for i, p := range participants {
		ages[i] = p.Age
	}
	return ages
}
