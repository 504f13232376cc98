package models

// StoreHours describes one weekday's opening window. Weekday follows
// time.Weekday (0 = Sunday).
type StoreHours struct {
	Weekday          int  `gorm:"column:weekday;primaryKey;autoIncrement:false"`
	OpeningHour      int  `gorm:"column:opening_hour;not null"`
	OpeningMinute    int  `gorm:"column:opening_minute;not null"`
	ClosingHour      int  `gorm:"column:closing_hour;not null"`
	ClosingMinute    int  `gorm:"column:closing_minute;not null"`
	IsOpen           bool `gorm:"column:is_open;not null"`
	IsClosingNextDay bool `gorm:"column:is_closing_next_day;not null"`
}

func (StoreHours) TableName() string {
	return "store_hours"
}
