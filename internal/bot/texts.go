package bot

// Reply-keyboard labels. The diary trigger doubles as the text that
// routes an update into the diary conversation, so it must stay in sync
// with the destiny resolver.
const (
	LabelMakeEntry = "📝 Сделать запись"
	LabelSettings  = "⚙️ Настройки"
	LabelHelp      = "❓ Помощь"
	LabelAbout     = "ℹ️ О боте"
)

const (
	textWelcome = "👋 Привет! Я бот-трекер для людей с болезнью Крона и язвенным колитом.\n\n" +
		"Я помогу вам отслеживать походы в туалет и отслеживать состояние.\n\n"

	textHelp = "📚 <b>Справка по командам бота:</b>\n\n" +
		"<b>Основные команды:</b>\n" +
		"/start - Начать работу с ботом\n" +
		"/about - Информация о боте\n" +
		"/help - Показать эту справку\n\n" +
		"<b>Для записи данных используйте кнопку:</b>\n" +
		"• " + LabelMakeEntry + " - для записи факта похода в туалет и заметок\n\n" +
		"Все данные хранятся анонимно и используются только для вашего анализа."

	textAbout = "ℹ️ <b>О боте:</b>\n\n" +
		"Этот бот создан для помощи людям с воспалительными заболеваниями кишечника " +
		"(болезнь Крона и язвенный колит).\n\n" +
		"<b>Цели проекта:</b>\n" +
		"1. Помочь отслеживать симптомы и триггеры\n" +
		"2. Упростить ведение дневника для консультаций с врачом\n" +
		"3. Предоставить аналитику для понимания динамики заболевания\n\n" +
		"Бот не заменяет консультацию врача! Все решения о лечении должны приниматься " +
		"под наблюдением специалиста.\n\n" +
		"Для связи с разработчиком: laefree@yandex.ru"

	textSetupTimezone = "Давайте для начала установим вашу таймзону\n\n" +
		"Укажите часовой пояс, а затем минутное смещение"
	textTimezoneHours   = "Укажите часы таймзоны"
	textTimezoneMinutes = "Укажите минуты таймзоны"
	textUseEntryButton  = "Для записи данных используйте кнопку:\n" +
		"• " + LabelMakeEntry + " - для записи факта похода в туалет и заметок"

	textSomethingWrong = "Что-то пошло не так. Попробуйте еще раз позже."
)

// Diary screen texts keyed off the screen the flow asks to render.
const (
	textEntryMenu = "📝 <b>Произвести запись</b>\n\n" +
		"Запись создана. Укажите данные или отметьте ложный позыв."
	textAskConsistency = "📝 <b>Произвести запись</b>\n\nУкажите состояние стула:"
	textAskMucus       = "📝 <b>Произвести запись</b>\n\nУкажите наличие слизи:"
	textAskBlood       = "📝 <b>Произвести запись</b>\n\nУкажите наличие крови:"
	textAskNotes       = "Если хотите оставить заметку, пришлите ее в сообщении\n" +
		"Или пропустите этот шаг"
	textConfirmDelete = "Удалить запись?\n\nЭто действие нельзя отменить."
)
