package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type ScheduleReadyMailData struct {
	JobID    string  `json:"jobID"`
	Status   string  `json:"status"`
	Rounds   int     `json:"rounds"`
	Fitness  float64 `json:"fitness"`
	Feasible bool    `json:"feasible"`
	Partial  bool    `json:"partial"`
}
