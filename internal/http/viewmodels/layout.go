package viewmodels

type LayoutData struct {
	Title      string
	CSRFToken  string
	UserEmail  string
	IsStaff    bool
	ActivePath string
}

type ToastViewData struct {
	Category string
	Title    string
	Message  string
}
