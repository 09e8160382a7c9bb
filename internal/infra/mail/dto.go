package mail

type LeadCreatedData struct {
	NombreCliente string
	Servicio      string
	Descripcion   string
	LeadURL       string
}

type LeadAcceptedData struct {
	NombreCliente       string
	Servicio            string
	NombreProfesional   string
	Profesion           string
	WhatsappProfesional string
	LeadURL             string
}
