package observability

// FieldPID is the field value type for process ID
type FieldPID int

// FieldUID is the field value type for user ID
type FieldUID int

// FieldUsername is the field value type for hostname
type FieldUsername string

// FieldHostname is the field value type for hostname
type FieldHostname string
