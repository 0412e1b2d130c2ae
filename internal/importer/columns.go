package importer

// Column headers of the orders export.
const (
	colOrderID        = "ID заказа"
	colOrderDate      = "Дата оформления"
	colOrderTime      = "Время оформления (часы:минуты)"
	colClientName     = "ФИО клиента"
	colClientEmail    = "Емаил клиента"
	colClientPhone    = "Тел клиента"
	colEventName      = "Название события"
	colEventDate      = "Дата"
	colEventTime      = "Время"
	colOrganizer      = "Компания-организатор (название)"
	colSeller         = "Компания-продавец (название)"
	colTicketsCount   = "Кол-во билетов"
	colOrderAmount    = "Сумма заказа"
	colDiscountCode   = "Промокод"
	colDiscountAmount = "Процент/сумма скидки"
	colAgentPercent   = "Процент агентского вознаграждения"
	colSystemPercent  = "Процент комиссии системы"
	colOrganizerAmt   = "Сумма вознаграждения организатора"
	colAgentAmount    = "Сумма агентского вознаграждения"
	colSystemAmount   = "Сумма комиссии системы"
	colDiscountValue  = "Сумма скидки"
	colPaymentStatus  = "Статус оплаты"
	colTicketStatus   = "Статус билета"
	colRefundDate     = "Дата возврата"
	colRefundAmount   = "Сумма возврата"
	colERB            = "ЕРБ"
)

const defaultTime = "00:00"
