package viewmodels

type DashboardViewData struct {
	Layout       LayoutData
	Drafts       []DashboardDraftItem
	PendingCount int
	Toast        ToastViewData
}

type DashboardDraftItem struct {
	ID           int64
	Name         string
	ProviderName string
	Status       string
	UpdateOfID   int64
	SubmittedAt  string
}
