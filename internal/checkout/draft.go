package checkout

// PaymentMethod values match what the backend stores.
type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "Transferencia"
	PaymentCash     PaymentMethod = "Efectivo"
)

// TimeRanges is the fixed, tenant-independent set of delivery windows.
var TimeRanges = []string{
	"10:00 - 12:00",
	"12:00 - 14:00",
	"14:00 - 16:00",
	"16:00 - 18:00",
}

func validTimeRange(r string) bool {
	for _, tr := range TimeRanges {
		if tr == r {
			return true
		}
	}
	return false
}

type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

type Address struct {
	Text    string
	Details string
}

type Receipt struct {
	Filename string
	Content  []byte
}

type Schedule struct {
	Enabled   bool
	Date      string
	TimeRange string
}

// Draft is the order being composed. It lives exactly as long as its
// session: discarded on success, kept verbatim across failed submits.
type Draft struct {
	Customer     CustomerInfo
	Address      Address
	DeliveryCost *float64
	Payment      PaymentMethod
	Receipt      *Receipt
	DiscountCode string
	Discount     float64
	Schedule     Schedule
}

// Confirmation is handed to the storefront after a successful submission so
// it can route to the tenant's success page with the customer's name.
type Confirmation struct {
	Establecimiento string
	CustomerName    string
	OrderID         string
}
